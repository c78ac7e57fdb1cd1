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

var _ repository.DimensionRepository = (*DimensionRepo)(nil)

// dimensionTables whitelist de tablas por tipo de dimensión. El nombre de
// tabla jamás se interpola desde entrada del usuario.
var dimensionTables = map[entity.DimensionKind]string{
	entity.DimensionCategory:     "categories",
	entity.DimensionBrand:        "brands",
	entity.DimensionPresentation: "presentations",
	entity.DimensionUnitMeasure:  "unit_measures",
}

// DimensionRepo implementación de DimensionRepository sobre PostgreSQL
// (usable con pool o tx). Las cuatro tablas de referencia comparten esquema;
// solo unit_measures agrega la columna symbol.
type DimensionRepo struct {
	q Querier
}

// NewDimensionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDimensionRepository(q Querier) *DimensionRepo {
	return &DimensionRepo{q: q}
}

func tableFor(kind entity.DimensionKind) (string, error) {
	table, ok := dimensionTables[kind]
	if !ok {
		return "", fmt.Errorf("tipo de dimensión desconocido %q: %w", kind, domain.ErrInvalidInput)
	}
	return table, nil
}

// FindByName busca por nombre exacto sin distinguir mayúsculas. Si existen
// una fila activa y una inactiva con el mismo nombre devuelve la activa.
func (r *DimensionRepo) FindByName(ctx context.Context, kind entity.DimensionKind, name string) (*entity.Dimension, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	symbolCol := "''"
	if kind == entity.DimensionUnitMeasure {
		symbolCol = "COALESCE(symbol, '')"
	}
	query := fmt.Sprintf(`
		SELECT id, name, COALESCE(description, ''), %s, active, created_at, updated_at
		FROM %s WHERE lower(name) = lower($1)
		ORDER BY active DESC LIMIT 1`, symbolCol, table)

	var d entity.Dimension
	d.Kind = kind
	err = r.q.QueryRow(ctx, query, name).Scan(
		&d.ID, &d.Name, &d.Description, &d.Symbol, &d.Active, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s by name: %w", table, mapError(err))
	}
	return &d, nil
}

// Create inserta una fila de dimensión.
func (r *DimensionRepo) Create(ctx context.Context, d *entity.Dimension) error {
	table, err := tableFor(d.Kind)
	if err != nil {
		return err
	}
	var query string
	var args []any
	if d.Kind == entity.DimensionUnitMeasure {
		query = fmt.Sprintf(`
			INSERT INTO %s (id, name, description, symbol, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`, table)
		args = []any{d.ID, d.Name, d.Description, d.Symbol, d.Active, d.CreatedAt, d.UpdatedAt}
	} else {
		query = fmt.Sprintf(`
			INSERT INTO %s (id, name, description, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`, table)
		args = []any{d.ID, d.Name, d.Description, d.Active, d.CreatedAt, d.UpdatedAt}
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert %s: %w", table, mapError(err))
	}
	return nil
}

// Reactivate vuelve a activar una fila inactiva.
func (r *DimensionRepo) Reactivate(ctx context.Context, kind entity.DimensionKind, id string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET active = true, updated_at = now() WHERE id = $1`, table)
	cmd, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("reactivate %s: %w", table, mapError(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SymbolInUse indica si un símbolo de unidad de medida ya está ocupado.
func (r *DimensionRepo) SymbolInUse(ctx context.Context, symbol string) (bool, error) {
	var inUse bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM unit_measures WHERE symbol = $1)`, symbol,
	).Scan(&inUse)
	if err != nil {
		return false, fmt.Errorf("check symbol: %w", mapError(err))
	}
	return inUse, nil
}
