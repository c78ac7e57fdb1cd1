package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpenCashSessionRequest petición de apertura de caja.
type OpenCashSessionRequest struct {
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// CashSessionResponse sesión de caja.
type CashSessionResponse struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	OpenedBy       string          `json:"opened_by"`
	ClosedBy       string          `json:"closed_by,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	OpenedAt       time.Time       `json:"opened_at"`
	ClosedAt       *time.Time      `json:"closed_at,omitempty"`
}
