package inventory_test

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/farmaplus/pos-api/internal/domain"
	"github.com/farmaplus/pos-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria de los puertos de inventario
// ──────────────────────────────────────────────────────────────────────────────

type fakeMovementRepo struct {
	movements []*entity.InventoryMovement
	nextID    int64
	appendErr error
}

func (f *fakeMovementRepo) Append(_ context.Context, m *entity.InventoryMovement) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.nextID++
	m.ID = f.nextID
	clone := *m
	f.movements = append(f.movements, &clone)
	return nil
}

func (f *fakeMovementRepo) SumByProduct(_ context.Context, productID string) (int64, error) {
	var sum int64
	for _, m := range f.movements {
		if m.ProductID == productID {
			sum += m.SignedDelta()
		}
	}
	return sum, nil
}

func (f *fakeMovementRepo) ListByProduct(_ context.Context, productID string, from, to *time.Time) ([]*entity.InventoryMovement, error) {
	var list []*entity.InventoryMovement
	for _, m := range f.movements {
		if m.ProductID != productID {
			continue
		}
		if from != nil && m.Date.Before(*from) {
			continue
		}
		if to != nil && m.Date.After(*to) {
			continue
		}
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (f *fakeMovementRepo) LotBalances(_ context.Context, productID string, beforeID int64) ([]entity.LotBalance, error) {
	type key struct {
		exp time.Time
		lot string
	}
	groups := map[key]*entity.LotBalance{}
	for _, m := range f.movements {
		if m.ProductID != productID || m.ID >= beforeID || m.ExpirationDate == nil {
			continue
		}
		lot := ""
		if m.LotNumber != nil {
			lot = *m.LotNumber
		}
		k := key{exp: *m.ExpirationDate, lot: lot}
		g, ok := groups[k]
		if !ok {
			g = &entity.LotBalance{ExpirationDate: k.exp, LotNumber: lot, FirstMovement: m.Date}
			groups[k] = g
		}
		g.Balance += m.SignedDelta()
		if m.Date.Before(g.FirstMovement) {
			g.FirstMovement = m.Date
		}
	}
	var out []entity.LotBalance
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpirationDate.Equal(out[j].ExpirationDate) {
			return out[i].ExpirationDate.Before(out[j].ExpirationDate)
		}
		return out[i].FirstMovement.Before(out[j].FirstMovement)
	})
	return out, nil
}

func (f *fakeMovementRepo) BackfillLot(_ context.Context, id int64, lotNumber string, expiration time.Time) error {
	for _, m := range f.movements {
		if m.ID != id {
			continue
		}
		if m.LotNumber == nil {
			m.LotNumber = &lotNumber
		}
		if m.ExpirationDate == nil {
			m.ExpirationDate = &expiration
		}
		return nil
	}
	return domain.ErrNotFound
}

type fakeProductRepo struct {
	products map[string]*entity.Product
}

func newFakeProductRepo(products ...*entity.Product) *fakeProductRepo {
	f := &fakeProductRepo{products: map[string]*entity.Product{}}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProductRepo) Create(_ context.Context, p *entity.Product) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) Update(_ context.Context, p *entity.Product) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return f.products[id], nil
}

func (f *fakeProductRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	for _, p := range f.products {
		if p.SKU == sku && sku != "" {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductRepo) GetByName(_ context.Context, name string) (*entity.Product, error) {
	for _, p := range f.products {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductRepo) AdjustStock(_ context.Context, id string, delta int64) error {
	p, ok := f.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Stock += delta
	return nil
}

type fakeLotSeqRepo struct {
	last    map[string]int
	nextErr error
	lastErr error
}

func newFakeLotSeqRepo() *fakeLotSeqRepo {
	return &fakeLotSeqRepo{last: map[string]int{}}
}

func dayKey(t time.Time) string { return t.Format("20060102") }

func (f *fakeLotSeqRepo) Next(_ context.Context, day time.Time) (int, error) {
	if f.nextErr != nil {
		return 0, f.nextErr
	}
	f.last[dayKey(day)]++
	return f.last[dayKey(day)], nil
}

func (f *fakeLotSeqRepo) LastForUpdate(_ context.Context, day time.Time) (int, error) {
	if f.lastErr != nil {
		return 0, f.lastErr
	}
	return f.last[dayKey(day)], nil
}

func (f *fakeLotSeqRepo) SetLast(_ context.Context, day time.Time, seq int) error {
	f.last[dayKey(day)] = seq
	return nil
}

var errInfra = errors.New("fallo de infraestructura simulado")
