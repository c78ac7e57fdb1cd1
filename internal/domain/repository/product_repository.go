package repository

import (
	"context"

	"github.com/farmaplus/pos-api/internal/domain/entity"
)

// ProductRepository puerto de persistencia de productos.
// Las implementaciones devuelven (nil, nil) cuando no hay fila.
type ProductRepository interface {
	Create(ctx context.Context, p *entity.Product) error
	Update(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetByIDForUpdate bloquea la fila del producto (SELECT ... FOR UPDATE)
	// para serializar la secuencia verificar-stock-y-descontar.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// GetByName busca por nombre sin distinguir mayúsculas.
	GetByName(ctx context.Context, name string) (*entity.Product, error)
	// AdjustStock aplica un delta (positivo o negativo) sobre la caché de stock.
	AdjustStock(ctx context.Context, id string, delta int64) error
}
