package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de compra.
const (
	PurchaseCreado    = "CREADO"
	PurchaseEnviado   = "ENVIADO"
	PurchaseRecibido  = "RECIBIDO"
	PurchaseCancelado = "CANCELADO"
)

// purchaseTransitions define la máquina de estados de la orden de compra.
// CANCELADO es terminal.
var purchaseTransitions = map[string][]string{
	PurchaseCreado:    {PurchaseEnviado, PurchaseRecibido, PurchaseCancelado},
	PurchaseEnviado:   {PurchaseRecibido, PurchaseCancelado},
	PurchaseRecibido:  {PurchaseCancelado},
	PurchaseCancelado: {},
}

// CanTransitionPurchase indica si la transición from → to está en la tabla.
func CanTransitionPurchase(from, to string) bool {
	for _, allowed := range purchaseTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// PurchaseOrder es la cabecera de una orden de compra a proveedor.
// Total es desnormalizado: Σ(detalle.Quantity × detalle.UnitCost) tras el
// merge de líneas duplicadas.
type PurchaseOrder struct {
	ID         string
	SupplierID string
	UserID     string
	Status     string
	Total      decimal.Decimal
	Date       time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PurchaseOrderDetail es una línea de orden de compra. Las líneas del mismo
// producto se fusionan antes de insertar: cantidades sumadas y costo unitario
// promediado aritméticamente (política definida, no ponderada por cantidad).
type PurchaseOrderDetail struct {
	ID              string
	PurchaseOrderID string
	ProductID       string
	Quantity        int64
	UnitCost        decimal.Decimal
	Subtotal        decimal.Decimal // Quantity × UnitCost
	LotNumber       string          // opcional; se genera al recibir si falta
	ExpirationDate  *time.Time      // opcional
}
