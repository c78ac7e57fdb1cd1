package inventory

import (
	"context"
	"time"

	"github.com/farmaplus/pos-api/internal/domain"
	"github.com/farmaplus/pos-api/internal/domain/entity"
	"github.com/farmaplus/pos-api/internal/domain/repository"
)

// Ledger es la única vía legítima de cambio de stock: cada evento que afecta
// existencias produce exactamente un movimiento append-only, y la caché
// product.stock se actualiza en la misma transacción con el delta con signo.
// Los movimientos confirmados son inmutables salvo el backfill de lote y
// vencimiento en NULL.
type Ledger struct{}

// NewLedger construye el ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Apply valida el movimiento, lo agrega al ledger y aplica el delta sobre la
// caché de stock del producto. Debe invocarse con repositorios atados a la
// transacción del caller; el pre-chequeo de stock para salidas es
// responsabilidad de la transacción de comercio, no de un constraint de
// base de datos.
func (l *Ledger) Apply(ctx context.Context, movRepo repository.InventoryMovementRepository, productRepo repository.ProductRepository, m *entity.InventoryMovement) error {
	sign := entity.SignForMovement(m.Type)
	if sign == 0 || m.Quantity <= 0 || m.ProductID == "" {
		return domain.ErrInvalidInput
	}
	m.Sign = sign
	if m.Date.IsZero() {
		m.Date = time.Now()
	}
	if err := movRepo.Append(ctx, m); err != nil {
		return err
	}
	return productRepo.AdjustStock(ctx, m.ProductID, m.SignedDelta())
}

// CurrentStock devuelve Σ(sign * quantity) sobre el ledger del producto.
func (l *Ledger) CurrentStock(ctx context.Context, movRepo repository.InventoryMovementRepository, productID string) (int64, error) {
	return movRepo.SumByProduct(ctx, productID)
}

// Kardex devuelve el historial ordenado (fecha, luego id) de movimientos de
// un producto en un rango de fechas: la pista de auditoría que inspecciona el
// usuario.
func (l *Ledger) Kardex(ctx context.Context, movRepo repository.InventoryMovementRepository, productID string, from, to *time.Time) ([]*entity.InventoryMovement, error) {
	return movRepo.ListByProduct(ctx, productID, from, to)
}

// Backfill completa lote y vencimiento de un movimiento confirmado que quedó
// con esas columnas en NULL. Es la única mutación permitida sobre un
// movimiento: cantidad, signo y producto son inmutables, y las columnas ya
// pobladas no se tocan.
func (l *Ledger) Backfill(ctx context.Context, movRepo repository.InventoryMovementRepository, movementID int64, lotNumber string, expiration time.Time) error {
	if movementID <= 0 || lotNumber == "" || expiration.IsZero() {
		return domain.ErrInvalidInput
	}
	return movRepo.BackfillLot(ctx, movementID, lotNumber, expiration)
}

// ConsistencyReport resultado de contrastar la caché de stock contra el ledger.
type ConsistencyReport struct {
	ProductID   string
	CachedStock int64
	LedgerStock int64
	Consistent  bool
}

// VerifyConsistency contrasta product.stock contra la suma del ledger.
// Cualquier divergencia es un bug de integridad de datos, no un estado
// esperado.
func (l *Ledger) VerifyConsistency(ctx context.Context, movRepo repository.InventoryMovementRepository, productRepo repository.ProductRepository, productID string) (*ConsistencyReport, error) {
	product, err := productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	sum, err := movRepo.SumByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &ConsistencyReport{
		ProductID:   productID,
		CachedStock: product.Stock,
		LedgerStock: sum,
		Consistent:  product.Stock == sum,
	}, nil
}
