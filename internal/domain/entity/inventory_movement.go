package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementCompra            = "COMPRA"             // recepción de orden de compra (+1)
	MovementVenta             = "VENTA"              // salida por venta (-1)
	MovementAjusteEntrada     = "AJUSTE_ENTRADA"     // ajuste manual (+1)
	MovementAjusteSalida      = "AJUSTE_SALIDA"      // ajuste manual (-1)
	MovementDevolucionCompra  = "DEVOLUCION_COMPRA"  // devolución a proveedor (-1)
	MovementDevolucionCliente = "DEVOLUCION_CLIENTE" // devolución de cliente (+1)
)

// movementSigns mapea cada tipo de movimiento a su signo obligatorio.
var movementSigns = map[string]int{
	MovementCompra:            +1,
	MovementVenta:             -1,
	MovementAjusteEntrada:     +1,
	MovementAjusteSalida:      -1,
	MovementDevolucionCompra:  -1,
	MovementDevolucionCliente: +1,
}

// SignForMovement devuelve el signo (+1/-1) de un tipo de movimiento,
// o 0 si el tipo no está en el enumerado.
func SignForMovement(movementType string) int {
	return movementSigns[movementType]
}

// InventoryMovement es una entrada del ledger de inventario (append-only).
// El ID es BIGSERIAL y sirve como desempate de orden. Quantity es siempre > 0;
// el delta con signo es Sign * Quantity. Una vez confirmado, solo LotNumber y
// ExpirationDate en NULL pueden rellenarse después; cantidad, signo y producto
// son inmutables.
type InventoryMovement struct {
	ID              int64
	ProductID       string
	Date            time.Time
	Type            string
	Quantity        int64 // > 0
	Sign            int   // +1 / -1
	LotNumber       *string
	ExpirationDate  *time.Time
	SaleID          *string
	PurchaseOrderID *string
	CreatedBy       string
	Notes           string
}

// SignedDelta devuelve Sign * Quantity.
func (m *InventoryMovement) SignedDelta() int64 {
	return int64(m.Sign) * m.Quantity
}

// LotBalance es el balance acumulado de un grupo (fecha de vencimiento, lote)
// para la resolución FIFO: Σ(delta con signo) de los movimientos previos.
type LotBalance struct {
	ExpirationDate time.Time
	LotNumber      string
	Balance        int64
	FirstMovement  time.Time // fecha del primer movimiento del grupo (desempate)
}
