package inventory

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/farmaplus/pos-api/internal/domain/entity"
	"github.com/farmaplus/pos-api/internal/domain/repository"
)

// Rango del vencimiento generado cuando no hay ninguna otra fuente:
// uniforme entre 6 y 36 meses desde hoy.
const (
	minExpirationMonths = 6
	maxExpirationMonths = 36
)

// LotResolver asigna vencimiento y lote a un movimiento de salida cuando el
// caller no los suministró, con búsqueda FIFO sobre los movimientos previos.
// Now e Intn son reemplazables en tests.
type LotResolver struct {
	Now  func() time.Time
	Intn func(n int) int
}

// NewLotResolver construye el resolutor con reloj y azar reales.
func NewLotResolver() *LotResolver {
	return &LotResolver{Now: time.Now, Intn: rand.Intn}
}

// ResolveIssue completa LotNumber y ExpirationDate de un movimiento de venta
// pendiente de insertar. Orden de resolución:
//  1. FIFO: el grupo (vencimiento, lote) con vencimiento más temprano
//     (desempate: primer movimiento más antiguo) cuyo balance acumulado sea > 0.
//  2. Vencimiento propio del producto, si lo tiene.
//  3. Vencimiento generado (6–36 meses desde hoy).
//
// Si tras eso el lote sigue faltando, se genera el siguiente del día vía seq.
func (r *LotResolver) ResolveIssue(ctx context.Context, movRepo repository.InventoryMovementRepository, product *entity.Product, m *entity.InventoryMovement, seq LotSequencer) error {
	if m.LotNumber != nil && m.ExpirationDate != nil {
		return nil
	}

	group, err := r.fifoGroup(ctx, movRepo, product.ID)
	if err != nil {
		return err
	}
	if group != nil {
		if m.ExpirationDate == nil {
			exp := group.ExpirationDate
			m.ExpirationDate = &exp
		}
		if m.LotNumber == nil && group.LotNumber != "" {
			lot := group.LotNumber
			m.LotNumber = &lot
		}
	}

	if m.ExpirationDate == nil {
		if product.ExpirationDate != nil {
			exp := *product.ExpirationDate
			m.ExpirationDate = &exp
		} else {
			exp := r.randomExpiration()
			m.ExpirationDate = &exp
		}
	}

	if m.LotNumber == nil {
		lot, err := seq.NextLot(ctx)
		if err != nil {
			return err
		}
		m.LotNumber = &lot
	}
	return nil
}

// fifoGroup devuelve el primer grupo (vencimiento, lote) con balance positivo,
// o nil si no existe. El movimiento actual aún no está insertado, así que
// todos los existentes lo preceden por id.
func (r *LotResolver) fifoGroup(ctx context.Context, movRepo repository.InventoryMovementRepository, productID string) (*entity.LotBalance, error) {
	groups, err := movRepo.LotBalances(ctx, productID, math.MaxInt64)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].Balance > 0 {
			return &groups[i], nil
		}
	}
	return nil, nil
}

func (r *LotResolver) randomExpiration() time.Time {
	months := minExpirationMonths + r.Intn(maxExpirationMonths-minExpirationMonths+1)
	return r.Now().AddDate(0, months, 0)
}
