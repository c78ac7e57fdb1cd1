package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/farmaplus/pos-api/internal/domain/repository"
)

// FormatLot arma un número de lote: LOTE-{YYYYMMDD}-{secuencia de 6 dígitos}.
func FormatLot(day time.Time, seq int) string {
	return fmt.Sprintf("LOTE-%s-%06d", day.Format("20060102"), seq)
}

// fallbackLot produce un lote con sufijo de timestamp cuando no se pudo
// calcular una secuencia: la escritura nunca se bloquea indefinidamente por
// el contador.
func fallbackLot(now time.Time) string {
	return fmt.Sprintf("LOTE-%s-T%d", now.Format("20060102"), now.UnixNano())
}

// LotSequencer entrega números de lote consecutivos para el día en curso.
type LotSequencer interface {
	NextLot(ctx context.Context) (string, error)
}

// StoreSequencer asigna cada secuencia contra el almacén (incremento atómico
// por fila de día, dentro de la transacción del caller). Ante cualquier falla
// del contador degrada al lote con sufijo de timestamp.
type StoreSequencer struct {
	repo repository.LotSequenceRepository
	Now  func() time.Time // reemplazable en tests
}

// NewStoreSequencer construye el secuenciador con reloj real.
func NewStoreSequencer(repo repository.LotSequenceRepository) *StoreSequencer {
	return &StoreSequencer{repo: repo, Now: time.Now}
}

// NextLot devuelve el siguiente lote del día.
func (s *StoreSequencer) NextLot(ctx context.Context) (string, error) {
	now := s.Now()
	seq, err := s.repo.Next(ctx, now)
	if err != nil {
		return fallbackLot(now), nil
	}
	return FormatLot(now, seq), nil
}

// BatchSequencer mantiene un contador en memoria sembrado desde la última
// secuencia persistida del día (fila bloqueada hasta el commit), evitando un
// round trip por fila al importar. Flush persiste el valor final. Optimización
// interna del driver de lotes, no un contrato externo.
type BatchSequencer struct {
	repo   repository.LotSequenceRepository
	day    time.Time
	next   int
	seeded bool
}

// NewBatchSequencer construye el secuenciador de lote de importación.
func NewBatchSequencer(repo repository.LotSequenceRepository, now time.Time) *BatchSequencer {
	return &BatchSequencer{repo: repo, day: now}
}

// NextLot siembra el contador en el primer uso (bloqueando la fila del día) y
// luego incrementa en memoria. Si la siembra falla degrada al lote de
// timestamp sin bloquear la escritura.
func (b *BatchSequencer) NextLot(ctx context.Context) (string, error) {
	if !b.seeded {
		last, err := b.repo.LastForUpdate(ctx, b.day)
		if err != nil {
			return fallbackLot(time.Now()), nil
		}
		b.next = last
		b.seeded = true
	}
	b.next++
	return FormatLot(b.day, b.next), nil
}

// Flush persiste la última secuencia usada. No-op si nunca se asignó un lote.
func (b *BatchSequencer) Flush(ctx context.Context) error {
	if !b.seeded {
		return nil
	}
	return b.repo.SetLast(ctx, b.day, b.next)
}
