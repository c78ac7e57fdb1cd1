package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/farmaplus/pos-api/internal/domain"
	"github.com/farmaplus/pos-api/internal/domain/entity"
	"github.com/farmaplus/pos-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo implementación del ledger de movimientos sobre
// PostgreSQL (usable con pool o tx). La tabla es append-only por contrato:
// ningún método emite UPDATE salvo el backfill de columnas en NULL.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Append inserta el movimiento y asigna m.ID desde el BIGSERIAL. El id sirve
// como desempate de orden entre movimientos con la misma fecha.
func (r *InventoryMovementRepo) Append(ctx context.Context, m *entity.InventoryMovement) error {
	query := `
		INSERT INTO inventory_movements
			(product_id, date, type, quantity, sign, lot_number, expiration_date, sale_id, purchase_order_id, created_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		m.ProductID, m.Date, m.Type, m.Quantity, m.Sign, m.LotNumber,
		m.ExpirationDate, m.SaleID, m.PurchaseOrderID, m.CreatedBy, m.Notes,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("append movement: %w", mapError(err))
	}
	return nil
}

// SumByProduct devuelve Σ(sign * quantity) de todos los movimientos del producto.
func (r *InventoryMovementRepo) SumByProduct(ctx context.Context, productID string) (int64, error) {
	var sum int64
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(sign * quantity), 0) FROM inventory_movements WHERE product_id = $1`,
		productID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum movements: %w", mapError(err))
	}
	return sum, nil
}

// ListByProduct devuelve el kardex del producto ordenado por fecha y luego id,
// acotado por el rango opcional [from, to].
func (r *InventoryMovementRepo) ListByProduct(ctx context.Context, productID string, from, to *time.Time) ([]*entity.InventoryMovement, error) {
	query := `
		SELECT id, product_id, date, type, quantity, sign, lot_number, expiration_date, sale_id, purchase_order_id, created_by, COALESCE(notes, '')
		FROM inventory_movements
		WHERE product_id = $1`
	args := []any{productID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date ASC, id ASC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", mapError(err))
	}
	defer rows.Close()

	var list []*entity.InventoryMovement
	for rows.Next() {
		var m entity.InventoryMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Date, &m.Type, &m.Quantity, &m.Sign,
			&m.LotNumber, &m.ExpirationDate, &m.SaleID, &m.PurchaseOrderID, &m.CreatedBy, &m.Notes); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// LotBalances agrupa los movimientos con vencimiento conocido anteriores a
// beforeID y devuelve el balance por grupo (vencimiento, lote), ordenado por
// vencimiento y primer movimiento (el orden que consume el resolutor FIFO).
// Un lote en NULL agrupa como cadena vacía: la condición es solo sobre el
// vencimiento. Incluye grupos con balance <= 0; el resolutor descarta los
// agotados.
func (r *InventoryMovementRepo) LotBalances(ctx context.Context, productID string, beforeID int64) ([]entity.LotBalance, error) {
	query := `
		SELECT expiration_date, COALESCE(lot_number, ''), SUM(sign * quantity), MIN(date)
		FROM inventory_movements
		WHERE product_id = $1 AND id < $2 AND expiration_date IS NOT NULL
		GROUP BY expiration_date, COALESCE(lot_number, '')
		ORDER BY expiration_date ASC, MIN(date) ASC`
	rows, err := r.q.Query(ctx, query, productID, beforeID)
	if err != nil {
		return nil, fmt.Errorf("lot balances: %w", mapError(err))
	}
	defer rows.Close()

	var balances []entity.LotBalance
	for rows.Next() {
		var b entity.LotBalance
		if err := rows.Scan(&b.ExpirationDate, &b.LotNumber, &b.Balance, &b.FirstMovement); err != nil {
			return nil, fmt.Errorf("scan lot balance: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// BackfillLot rellena lot_number y expiration_date solo si están en NULL.
// Cantidad, signo y producto son inmutables: no hay UPDATE que los toque.
func (r *InventoryMovementRepo) BackfillLot(ctx context.Context, id int64, lotNumber string, expiration time.Time) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE inventory_movements
		SET lot_number = COALESCE(lot_number, $2),
		    expiration_date = COALESCE(expiration_date, $3)
		WHERE id = $1`,
		id, lotNumber, expiration,
	)
	if err != nil {
		return fmt.Errorf("backfill lot: %w", mapError(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
