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

var _ repository.CashSessionRepository = (*CashSessionRepo)(nil)

// CashSessionRepo implementación de CashSessionRepository sobre PostgreSQL
// (usable con pool o tx). La unicidad de sesión abierta la sostiene el índice
// único parcial sobre status = 'ABIERTA', no un chequeo leer-luego-escribir.
type CashSessionRepo struct {
	q Querier
}

// NewCashSessionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCashSessionRepository(q Querier) *CashSessionRepo {
	return &CashSessionRepo{q: q}
}

const sessionColumns = `id, opened_by, COALESCE(closed_by, ''), opening_balance, closing_balance, status, opened_at, closed_at`

// Create inserta la sesión. La violación del índice único parcial se traduce
// a ErrSessionAlreadyOpen: dos aperturas concurrentes no pueden colarse ambas.
func (r *CashSessionRepo) Create(ctx context.Context, s *entity.CashSession) error {
	query := `
		INSERT INTO cash_sessions (id, opened_by, opening_balance, closing_balance, status, opened_at)
		VALUES ($1, $2, $3, 0, $4, $5)`
	_, err := r.q.Exec(ctx, query, s.ID, s.OpenedBy, s.OpeningBalance, s.Status, s.OpenedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSessionAlreadyOpen
		}
		return fmt.Errorf("insert cash session: %w", mapError(err))
	}
	return nil
}

// GetOpen devuelve la sesión ABIERTA, o (nil, nil) si no hay ninguna.
func (r *CashSessionRepo) GetOpen(ctx context.Context) (*entity.CashSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM cash_sessions WHERE status = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, entity.CashSessionAbierta), "get open session")
}

// GetOpenForUpdate bloquea la fila de la sesión ABIERTA. Una venta que la
// tomó impide que el cierre compute el balance hasta que la venta confirme,
// y viceversa.
func (r *CashSessionRepo) GetOpenForUpdate(ctx context.Context) (*entity.CashSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM cash_sessions WHERE status = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(ctx, query, entity.CashSessionAbierta), "lock open session")
}

// GetByID obtiene una sesión por ID.
func (r *CashSessionRepo) GetByID(ctx context.Context, id string) (*entity.CashSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM cash_sessions WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, id), "get session")
}

// GetByIDForUpdate bloquea la fila de la sesión para el cierre.
func (r *CashSessionRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.CashSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM cash_sessions WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(ctx, query, id), "lock session")
}

// Close persiste el cierre completo de la sesión.
func (r *CashSessionRepo) Close(ctx context.Context, s *entity.CashSession) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE cash_sessions
		SET status = $2, closed_by = $3, closing_balance = $4, closed_at = $5
		WHERE id = $1`,
		s.ID, s.Status, s.ClosedBy, s.ClosingBalance, s.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("close session: %w", mapError(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CashSessionRepo) scanOne(row pgx.Row, op string) (*entity.CashSession, error) {
	var s entity.CashSession
	err := row.Scan(&s.ID, &s.OpenedBy, &s.ClosedBy, &s.OpeningBalance,
		&s.ClosingBalance, &s.Status, &s.OpenedAt, &s.ClosedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &s, nil
}
