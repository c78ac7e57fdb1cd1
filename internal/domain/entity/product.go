package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo de la farmacia.
// Stock es una caché desnormalizada del balance del ledger de movimientos;
// solo se modifica junto con un InventoryMovement, nunca por edición directa.
type Product struct {
	ID             string
	Name           string
	SKU            string // código único global; vacío si no se asignó
	Barcode        string // código de barras único global; vacío si no se asignó
	CategoryID     string // obligatorio
	BrandID        string // opcional
	Price          decimal.Decimal
	Stock          int64 // >= 0, caché del balance del ledger
	ExpirationDate *time.Time
	Presentation   string // etiqueta libre, resuelta suavemente contra la dimensión
	UnitMeasure    string // etiqueta libre, resuelta suavemente contra la dimensión
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
