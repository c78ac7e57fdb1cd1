package repository

import (
	"context"

	"github.com/farmaplus/pos-api/internal/domain/entity"
)

// PurchaseOrderRepository puerto de persistencia de órdenes de compra.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, o *entity.PurchaseOrder) error
	CreateDetail(ctx context.Context, d *entity.PurchaseOrderDetail) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	GetByIDForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	ListDetails(ctx context.Context, orderID string) ([]*entity.PurchaseOrderDetail, error)
	UpdateStatus(ctx context.Context, id, status string) error
}
