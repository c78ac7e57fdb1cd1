package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta. La máquina es unidireccional e irreversible:
// solo una venta EMITIDA puede anularse.
const (
	SaleEmitida = "EMITIDA"
	SaleAnulada = "ANULADA"
)

// Sale es la cabecera de una venta. Total es desnormalizado y siempre igual a
// Σ(detalle.Quantity × detalle.UnitPrice) al confirmar la transacción.
// Toda venta queda atada a la sesión de caja abierta al momento de crearla.
type Sale struct {
	ID            string
	CustomerID    string // opcional
	UserID        string
	CashSessionID string
	Status        string
	Total         decimal.Decimal
	AnnulReason   string // motivo de anulación; vacío mientras EMITIDA
	Date          time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SaleDetail es una línea de venta.
type SaleDetail struct {
	ID        string
	SaleID    string
	ProductID string
	Quantity  int64
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal // Quantity × UnitPrice
}

// CanAnnul indica si la venta admite la transición a ANULADA.
func (s *Sale) CanAnnul() bool {
	return s.Status == SaleEmitida
}
