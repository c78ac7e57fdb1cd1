package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/farmaplus/pos-api/internal/domain/entity"
)

// SaleRepository puerto de persistencia de ventas.
type SaleRepository interface {
	Create(ctx context.Context, s *entity.Sale) error
	CreateDetail(ctx context.Context, d *entity.SaleDetail) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	ListDetails(ctx context.Context, saleID string) ([]*entity.SaleDetail, error)
	// UpdateStatus cambia el estado y registra el motivo (anulación).
	UpdateStatus(ctx context.Context, id, status, reason string) error
	// SumTotalsBySession suma los totales de ventas con el estado dado
	// registradas bajo una sesión de caja.
	SumTotalsBySession(ctx context.Context, sessionID, status string) (decimal.Decimal, error)
}
