package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrNoOpenSession      = errors.New("no hay una sesión de caja abierta")
	ErrSessionAlreadyOpen = errors.New("ya existe una sesión de caja abierta")
	ErrSessionNotOpen     = errors.New("la sesión de caja no está abierta o no existe")
	// ErrTransientStore señala fallas de infraestructura reintentable (timeout,
	// deadlock, serialización). El caller puede reintentar la operación completa,
	// nunca retomar a mitad de transacción.
	ErrTransientStore = errors.New("error transitorio de almacenamiento")
)

// InsufficientStockError indica que una venta pide más unidades de las disponibles.
// Nombra el producto y la cantidad disponible para que el mensaje sea accionable.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %q: solicitado %d, disponible %d",
		e.ProductName, e.Requested, e.Available)
}

// InvalidTransitionError indica un movimiento ilegal en la máquina de estados
// de una venta u orden de compra.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición inválida de %s: %s → %s", e.Entity, e.From, e.To)
}

// ReconciliationError indica que el reconciliador de catálogo agotó los
// reintentos de generación de símbolo sin encontrar uno libre.
type ReconciliationError struct {
	Kind  string
	Label string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("no se pudo generar un símbolo único para %s %q", e.Kind, e.Label)
}
