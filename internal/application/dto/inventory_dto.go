package dto

import "time"

// KardexEntryResponse una entrada del kardex de un producto.
type KardexEntryResponse struct {
	ID             int64      `json:"id"`
	Date           time.Time  `json:"date"`
	Type           string     `json:"type"`
	Quantity       int64      `json:"quantity"`
	Sign           int        `json:"sign"`
	LotNumber      string     `json:"lot_number,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	SaleID         string     `json:"sale_id,omitempty"`
	PurchaseID     string     `json:"purchase_order_id,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

// BackfillLotRequest petición para completar lote y vencimiento de un
// movimiento que quedó con esas columnas en NULL.
type BackfillLotRequest struct {
	LotNumber      string    `json:"lot_number"`
	ExpirationDate time.Time `json:"expiration_date"`
}

// StockConsistencyResponse resultado de contrastar caché vs ledger.
type StockConsistencyResponse struct {
	ProductID   string `json:"product_id"`
	CachedStock int64  `json:"cached_stock"`
	LedgerStock int64  `json:"ledger_stock"`
	Consistent  bool   `json:"consistent"`
}
