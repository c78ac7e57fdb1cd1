package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/farmaplus/pos-api/internal/domain"
	"github.com/farmaplus/pos-api/internal/domain/entity"
	"github.com/farmaplus/pos-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo implementación de PurchaseOrderRepository sobre PostgreSQL
// (usable con pool o tx).
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

const purchaseColumns = `id, supplier_id, user_id, status, total, date, created_at, updated_at`

// Create persiste la cabecera de una orden de compra.
func (r *PurchaseOrderRepo) Create(ctx context.Context, o *entity.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (` + purchaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.SupplierID, o.UserID, o.Status, o.Total, o.Date, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert purchase order: %w", mapError(err))
	}
	return nil
}

// CreateDetail persiste una línea (ya fusionada) de la orden.
func (r *PurchaseOrderRepo) CreateDetail(ctx context.Context, d *entity.PurchaseOrderDetail) error {
	query := `
		INSERT INTO purchase_order_details (id, purchase_order_id, product_id, quantity, unit_cost, subtotal, lot_number, expiration_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.PurchaseOrderID, d.ProductID, d.Quantity, d.UnitCost, d.Subtotal,
		nullIfEmpty(d.LotNumber), d.ExpirationDate,
	)
	if err != nil {
		return fmt.Errorf("insert purchase detail: %w", mapError(err))
	}
	return nil
}

// GetByID obtiene una orden por ID.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchase_orders WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, id), "get purchase order")
}

// GetByIDForUpdate bloquea la fila de la orden para la transición de estado:
// dos transiciones concurrentes de la misma orden serializan aquí.
func (r *PurchaseOrderRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchase_orders WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(ctx, query, id), "lock purchase order")
}

// ListDetails devuelve las líneas de una orden.
func (r *PurchaseOrderRepo) ListDetails(ctx context.Context, orderID string) ([]*entity.PurchaseOrderDetail, error) {
	query := `
		SELECT id, purchase_order_id, product_id, quantity, unit_cost, subtotal, lot_number, expiration_date
		FROM purchase_order_details WHERE purchase_order_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list purchase details: %w", mapError(err))
	}
	defer rows.Close()

	var list []*entity.PurchaseOrderDetail
	for rows.Next() {
		var d entity.PurchaseOrderDetail
		var lot *string
		if err := rows.Scan(&d.ID, &d.PurchaseOrderID, &d.ProductID, &d.Quantity,
			&d.UnitCost, &d.Subtotal, &lot, &d.ExpirationDate); err != nil {
			return nil, fmt.Errorf("scan purchase detail: %w", err)
		}
		d.LotNumber = deref(lot)
		list = append(list, &d)
	}
	return list, rows.Err()
}

// UpdateStatus cambia el estado de la orden. La validación de la transición es
// del caso de uso; aquí solo se persiste.
func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE purchase_orders SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("update purchase status: %w", mapError(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PurchaseOrderRepo) scanOne(row pgx.Row, op string) (*entity.PurchaseOrder, error) {
	var o entity.PurchaseOrder
	err := row.Scan(&o.ID, &o.SupplierID, &o.UserID, &o.Status, &o.Total, &o.Date, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &o, nil
}
