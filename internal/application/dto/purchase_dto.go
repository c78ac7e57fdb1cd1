package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseLineRequest línea de orden de compra. Las líneas repetidas del mismo
// producto se fusionan antes de insertar.
type PurchaseLineRequest struct {
	ProductID      string          `json:"product_id"`
	Quantity       int64           `json:"quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	LotNumber      string          `json:"lot_number,omitempty"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
}

// CreatePurchaseOrderRequest petición de creación de orden de compra.
type CreatePurchaseOrderRequest struct {
	SupplierID string                `json:"supplier_id"`
	Lines      []PurchaseLineRequest `json:"lines"`
}

// TransitionPurchaseOrderRequest petición de cambio de estado.
type TransitionPurchaseOrderRequest struct {
	Status string `json:"status"`
}

// PurchaseDetailResponse línea persistida (ya fusionada).
type PurchaseDetailResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// PurchaseOrderResponse orden con detalle.
type PurchaseOrderResponse struct {
	ID         string                   `json:"id"`
	SupplierID string                   `json:"supplier_id"`
	Status     string                   `json:"status"`
	Total      decimal.Decimal          `json:"total"`
	Date       time.Time                `json:"date"`
	Details    []PurchaseDetailResponse `json:"details"`
}
