package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/farmaplus/pos-api/internal/domain"
)

// Querier es el mínimo común entre *pgxpool.Pool y pgx.Tx: los adaptadores lo
// reciben para poder atarse a un pool o a una transacción sin cambiar de tipo.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// transientCodes errores de PostgreSQL que valen un reintento del caller:
// serialization_failure, deadlock_detected, lock_not_available y
// query_canceled (timeout de lock).
var transientCodes = map[string]bool{
	"40001": true,
	"40P01": true,
	"55P03": true,
	"57014": true,
}

// mapError traduce errores del driver a la taxonomía del dominio. Los que no
// tienen traducción pasan tal cual, envueltos por el caller.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && transientCodes[pgErr.Code] {
		return domain.ErrTransientStore
	}
	return err
}
