package repository

import (
	"context"

	"github.com/farmaplus/pos-api/internal/domain/entity"
)

// DimensionRepository puerto de persistencia de las tablas de referencia
// (categoría, marca, presentación, unidad de medida).
type DimensionRepository interface {
	// FindByName busca por nombre exacto sin distinguir mayúsculas, activa o
	// inactiva. Si existen ambas devuelve la activa. (nil, nil) si no hay fila.
	FindByName(ctx context.Context, kind entity.DimensionKind, name string) (*entity.Dimension, error)
	Create(ctx context.Context, d *entity.Dimension) error
	Reactivate(ctx context.Context, kind entity.DimensionKind, id string) error
	// SymbolInUse indica si un símbolo de unidad de medida ya está ocupado.
	SymbolInUse(ctx context.Context, symbol string) (bool, error)
}
