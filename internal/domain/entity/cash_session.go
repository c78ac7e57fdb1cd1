package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una sesión de caja.
const (
	CashSessionAbierta = "ABIERTA"
	CashSessionCerrada = "CERRADA"
)

// CashSession es una sesión de caja (caja registradora). Invariante del
// sistema: a lo sumo una sesión ABIERTA a la vez, garantizada por un índice
// único parcial en la base de datos, no por memoria de proceso.
type CashSession struct {
	ID             string
	OpenedBy       string
	ClosedBy       string // vacío mientras ABIERTA
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal // apertura + Σ ventas EMITIDA de la sesión
	Status         string
	OpenedAt       time.Time
	ClosedAt       *time.Time
}
