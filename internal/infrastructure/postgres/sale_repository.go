package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/farmaplus/pos-api/internal/domain"
	"github.com/farmaplus/pos-api/internal/domain/entity"
	"github.com/farmaplus/pos-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `id, customer_id, user_id, cash_session_id, status, total, COALESCE(annul_reason, ''), date, created_at, updated_at`

// Create persiste la cabecera de una venta.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `
		INSERT INTO sales (id, customer_id, user_id, cash_session_id, status, total, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		s.ID, nullIfEmpty(s.CustomerID), s.UserID, s.CashSessionID, s.Status,
		s.Total, s.Date, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", mapError(err))
	}
	return nil
}

// CreateDetail persiste una línea de venta.
func (r *SaleRepo) CreateDetail(ctx context.Context, d *entity.SaleDetail) error {
	query := `
		INSERT INTO sale_details (id, sale_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, d.ID, d.SaleID, d.ProductID, d.Quantity, d.UnitPrice, d.Subtotal)
	if err != nil {
		return fmt.Errorf("insert sale detail: %w", mapError(err))
	}
	return nil
}

// GetByID obtiene una venta por ID.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, id), "get sale")
}

// GetByIDForUpdate bloquea la fila de la venta para la transición de estado.
func (r *SaleRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(ctx, query, id), "lock sale")
}

// ListDetails devuelve las líneas de una venta.
func (r *SaleRepo) ListDetails(ctx context.Context, saleID string) ([]*entity.SaleDetail, error) {
	query := `
		SELECT id, sale_id, product_id, quantity, unit_price, subtotal
		FROM sale_details WHERE sale_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale details: %w", mapError(err))
	}
	defer rows.Close()

	var list []*entity.SaleDetail
	for rows.Next() {
		var d entity.SaleDetail
		if err := rows.Scan(&d.ID, &d.SaleID, &d.ProductID, &d.Quantity, &d.UnitPrice, &d.Subtotal); err != nil {
			return nil, fmt.Errorf("scan sale detail: %w", err)
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}

// UpdateStatus cambia el estado de la venta y registra el motivo.
func (r *SaleRepo) UpdateStatus(ctx context.Context, id, status, reason string) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE sales SET status = $2, annul_reason = $3, updated_at = now() WHERE id = $1`,
		id, status, nullIfEmpty(reason),
	)
	if err != nil {
		return fmt.Errorf("update sale status: %w", mapError(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SumTotalsBySession suma los totales de ventas con el estado dado bajo una
// sesión de caja (cierre de caja).
func (r *SaleRepo) SumTotalsBySession(ctx context.Context, sessionID, status string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM sales WHERE cash_session_id = $1 AND status = $2`,
		sessionID, status,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum sales by session: %w", mapError(err))
	}
	return total, nil
}

func (r *SaleRepo) scanOne(row pgx.Row, op string) (*entity.Sale, error) {
	var s entity.Sale
	var customerID *string
	err := row.Scan(&s.ID, &customerID, &s.UserID, &s.CashSessionID, &s.Status,
		&s.Total, &s.AnnulReason, &s.Date, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	s.CustomerID = deref(customerID)
	return &s, nil
}
