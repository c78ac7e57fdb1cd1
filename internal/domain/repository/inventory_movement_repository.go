package repository

import (
	"context"
	"time"

	"github.com/farmaplus/pos-api/internal/domain/entity"
)

// InventoryMovementRepository puerto del ledger de movimientos (append-only).
type InventoryMovementRepository interface {
	// Append inserta el movimiento y asigna m.ID (BIGSERIAL, RETURNING id).
	Append(ctx context.Context, m *entity.InventoryMovement) error
	// SumByProduct devuelve Σ(sign * quantity) de todos los movimientos del producto.
	SumByProduct(ctx context.Context, productID string) (int64, error)
	// ListByProduct devuelve el kardex: movimientos del producto ordenados por
	// fecha y luego por id, acotados por el rango opcional.
	ListByProduct(ctx context.Context, productID string, from, to *time.Time) ([]*entity.InventoryMovement, error)
	// LotBalances devuelve los balances por grupo (vencimiento, lote) de los
	// movimientos con vencimiento no nulo anteriores a beforeID, ordenados por
	// vencimiento ascendente y primer movimiento ascendente. Un lote en NULL
	// agrupa como cadena vacía. Incluye grupos con balance <= 0; el resolutor
	// FIFO descarta los agotados.
	LotBalances(ctx context.Context, productID string, beforeID int64) ([]entity.LotBalance, error)
	// BackfillLot rellena lot_number y expiration_date solo si están en NULL.
	// Cantidad, signo y producto son inmutables.
	BackfillLot(ctx context.Context, id int64, lotNumber string, expiration time.Time) error
}

// LotSequenceRepository puerto del contador de secuencias de lote por día.
type LotSequenceRepository interface {
	// Next incrementa y devuelve la secuencia del día de forma atómica
	// (upsert + RETURNING); seguro bajo escritores concurrentes.
	Next(ctx context.Context, day time.Time) (int, error)
	// LastForUpdate devuelve la última secuencia persistida del día y deja la
	// fila bloqueada hasta el fin de la transacción (siembra de lotes por lote
	// de importación).
	LastForUpdate(ctx context.Context, day time.Time) (int, error)
	// SetLast persiste la secuencia final tras un lote de importación.
	SetLast(ctx context.Context, day time.Time, seq int) error
}
