package ports

import (
	"context"

	"github.com/farmaplus/pos-api/internal/domain/repository"
)

// Repos agrupa los repositorios atados a una misma transacción.
// Nested permite ejecutar un tramo con aislamiento de fallas (savepoint):
// si el tramo falla, solo se revierten sus escrituras y la transacción
// exterior sigue usable (lo usa el importador para tolerancia por fila).
type Repos struct {
	Products   repository.ProductRepository
	Dimensions repository.DimensionRepository
	Movements  repository.InventoryMovementRepository
	LotSeq     repository.LotSequenceRepository
	Sales      repository.SaleRepository
	Purchases  repository.PurchaseOrderRepository
	Sessions   repository.CashSessionRepository
	Nested     NestedRunner
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Commit si fn retorna nil; Rollback completo en
// cualquier otro caso: nunca se observan escrituras parciales.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}

// NestedRunner ejecuta fn dentro de un savepoint de la transacción en curso.
type NestedRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}
