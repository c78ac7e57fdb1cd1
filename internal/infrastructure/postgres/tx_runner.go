package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmaplus/pos-api/internal/application/ports"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback. El Rollback diferido es inocuo tras un Commit exitoso.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ports.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", mapError(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(reposFor(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", mapError(err))
	}
	return nil
}

// reposFor arma el juego completo de repositorios sobre un Querier (tx o pool).
func reposFor(tx pgx.Tx) ports.Repos {
	return ports.Repos{
		Products:   NewProductRepository(tx),
		Dimensions: NewDimensionRepository(tx),
		Movements:  NewInventoryMovementRepository(tx),
		LotSeq:     NewLotSequenceRepository(tx),
		Sales:      NewSaleRepository(tx),
		Purchases:  NewPurchaseOrderRepository(tx),
		Sessions:   NewCashSessionRepository(tx),
		Nested:     &nestedRunner{tx: tx},
	}
}

// nestedRunner corre fn dentro de un savepoint: pgx traduce un Begin anidado a
// SAVEPOINT, y el Rollback del tx interno a ROLLBACK TO SAVEPOINT. Una falla
// de fn revierte solo sus escrituras y deja la transacción exterior usable.
type nestedRunner struct {
	tx pgx.Tx
}

func (n *nestedRunner) Run(ctx context.Context, fn func(repos ports.Repos) error) error {
	inner, err := n.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", mapError(err))
	}
	defer func() { _ = inner.Rollback(ctx) }()

	if err := fn(reposFor(inner)); err != nil {
		return err
	}
	if err := inner.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", mapError(err))
	}
	return nil
}
