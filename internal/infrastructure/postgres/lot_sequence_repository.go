package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/farmaplus/pos-api/internal/domain/repository"
)

var _ repository.LotSequenceRepository = (*LotSequenceRepo)(nil)

// LotSequenceRepo contador de secuencias de lote por día sobre PostgreSQL.
// Una fila por día; el upsert atómico serializa a los escritores concurrentes.
type LotSequenceRepo struct {
	q Querier
}

// NewLotSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotSequenceRepository(q Querier) *LotSequenceRepo {
	return &LotSequenceRepo{q: q}
}

// Next incrementa y devuelve la secuencia del día en una sola sentencia:
// el upsert con RETURNING es atómico bajo escritores concurrentes.
func (r *LotSequenceRepo) Next(ctx context.Context, day time.Time) (int, error) {
	var seq int
	err := r.q.QueryRow(ctx, `
		INSERT INTO lot_sequences (day, last_seq) VALUES ($1::date, 1)
		ON CONFLICT (day) DO UPDATE SET last_seq = lot_sequences.last_seq + 1
		RETURNING last_seq`,
		day.Format("2006-01-02"),
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next lot sequence: %w", mapError(err))
	}
	return seq, nil
}

// LastForUpdate devuelve la última secuencia del día y deja la fila bloqueada
// hasta el fin de la transacción. Si el día aún no tiene fila la crea en cero,
// con lo que el INSERT mismo la deja bloqueada.
func (r *LotSequenceRepo) LastForUpdate(ctx context.Context, day time.Time) (int, error) {
	var seq int
	err := r.q.QueryRow(ctx,
		`SELECT last_seq FROM lot_sequences WHERE day = $1::date FOR UPDATE`,
		day.Format("2006-01-02"),
	).Scan(&seq)
	if errors.Is(err, pgx.ErrNoRows) {
		err = r.q.QueryRow(ctx, `
			INSERT INTO lot_sequences (day, last_seq) VALUES ($1::date, 0)
			ON CONFLICT (day) DO UPDATE SET last_seq = lot_sequences.last_seq
			RETURNING last_seq`,
			day.Format("2006-01-02"),
		).Scan(&seq)
	}
	if err != nil {
		return 0, fmt.Errorf("lock lot sequence: %w", mapError(err))
	}
	return seq, nil
}

// SetLast persiste la secuencia final de un lote de importación. GREATEST
// evita retroceder el contador si otro escritor avanzó en paralelo.
func (r *LotSequenceRepo) SetLast(ctx context.Context, day time.Time, seq int) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO lot_sequences (day, last_seq) VALUES ($1::date, $2)
		ON CONFLICT (day) DO UPDATE SET last_seq = GREATEST(lot_sequences.last_seq, EXCLUDED.last_seq)`,
		day.Format("2006-01-02"), seq,
	)
	if err != nil {
		return fmt.Errorf("set lot sequence: %w", mapError(err))
	}
	return nil
}
