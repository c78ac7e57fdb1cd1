package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLineRequest línea de venta entrante. Lote y vencimiento son opcionales:
// si faltan, el resolutor FIFO los completa.
type SaleLineRequest struct {
	ProductID      string          `json:"product_id"`
	Quantity       int64           `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	LotNumber      string          `json:"lot_number,omitempty"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
}

// CreateSaleRequest petición de creación de venta (cliente opcional, >= 1 línea).
type CreateSaleRequest struct {
	CustomerID string            `json:"customer_id,omitempty"`
	Lines      []SaleLineRequest `json:"lines"`
}

// AnnulSaleRequest petición de anulación de venta.
type AnnulSaleRequest struct {
	Reason string `json:"reason"`
}

// SaleDetailResponse línea persistida.
type SaleDetailResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SaleResponse venta con detalle.
type SaleResponse struct {
	ID            string               `json:"id"`
	CustomerID    string               `json:"customer_id,omitempty"`
	CashSessionID string               `json:"cash_session_id"`
	Status        string               `json:"status"`
	Total         decimal.Decimal      `json:"total"`
	Date          time.Time            `json:"date"`
	Details       []SaleDetailResponse `json:"details"`
}
