// Package apptest provee dobles en memoria de los puertos de persistencia
// para las pruebas de los casos de uso. El Runner imita la semántica
// transaccional real por snapshot: si fn devuelve error se restaura el estado
// previo, así las pruebas de atomicidad observan el rollback de verdad. El
// runner anidado usa el mismo mecanismo (savepoint por fila del importador).
package apptest

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmaplus/pos-api/internal/application/ports"
	"github.com/farmaplus/pos-api/internal/domain"
	"github.com/farmaplus/pos-api/internal/domain/entity"
)

// Store estado en memoria compartido por todos los repos del doble.
// FailOn inyecta un error en la operación nombrada ("sales.CreateDetail",
// "movements.Append", ...) para ejercitar rollback.
type Store struct {
	Products     map[string]*entity.Product
	Dimensions   map[string]*entity.Dimension
	Movements    []*entity.InventoryMovement
	LotSeq       map[string]int
	Sales        map[string]*entity.Sale
	SaleDetails  []*entity.SaleDetail
	Orders       map[string]*entity.PurchaseOrder
	OrderDetails []*entity.PurchaseOrderDetail
	Sessions     map[string]*entity.CashSession

	NextMovementID int64
	FailOn         map[string]error
}

// NewStore construye un estado vacío.
func NewStore() *Store {
	return &Store{
		Products:       map[string]*entity.Product{},
		Dimensions:     map[string]*entity.Dimension{},
		LotSeq:         map[string]int{},
		Sales:          map[string]*entity.Sale{},
		Orders:         map[string]*entity.PurchaseOrder{},
		Sessions:       map[string]*entity.CashSession{},
		NextMovementID: 1,
		FailOn:         map[string]error{},
	}
}

func (s *Store) fail(op string) error {
	return s.FailOn[op]
}

// Repos devuelve el juego de repositorios sobre este estado.
func (s *Store) Repos() ports.Repos {
	return ports.Repos{
		Products:   &productRepo{s},
		Dimensions: &dimensionRepo{s},
		Movements:  &movementRepo{s},
		LotSeq:     &lotSeqRepo{s},
		Sales:      &saleRepo{s},
		Purchases:  &purchaseRepo{s},
		Sessions:   &sessionRepo{s},
		Nested:     &Runner{Store: s},
	}
}

// Runner implementa ports.TxRunner y ports.NestedRunner sobre el Store:
// snapshot antes de fn, restore si fn falla.
type Runner struct {
	Store *Store
}

func (r *Runner) Run(ctx context.Context, fn func(repos ports.Repos) error) error {
	snap := r.Store.snapshot()
	if err := fn(r.Store.Repos()); err != nil {
		r.Store.restore(snap)
		return err
	}
	return nil
}

// ─────────────────────────── snapshot / restore ───────────────────────────

type snapshot struct {
	products       map[string]*entity.Product
	dimensions     map[string]*entity.Dimension
	movements      []*entity.InventoryMovement
	lotSeq         map[string]int
	sales          map[string]*entity.Sale
	saleDetails    []*entity.SaleDetail
	orders         map[string]*entity.PurchaseOrder
	orderDetails   []*entity.PurchaseOrderDetail
	sessions       map[string]*entity.CashSession
	nextMovementID int64
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		products:       map[string]*entity.Product{},
		dimensions:     map[string]*entity.Dimension{},
		lotSeq:         map[string]int{},
		sales:          map[string]*entity.Sale{},
		orders:         map[string]*entity.PurchaseOrder{},
		sessions:       map[string]*entity.CashSession{},
		nextMovementID: s.NextMovementID,
	}
	for id, p := range s.Products {
		snap.products[id] = cloneProduct(p)
	}
	for id, d := range s.Dimensions {
		c := *d
		snap.dimensions[id] = &c
	}
	for _, m := range s.Movements {
		snap.movements = append(snap.movements, cloneMovement(m))
	}
	for k, v := range s.LotSeq {
		snap.lotSeq[k] = v
	}
	for id, sale := range s.Sales {
		c := *sale
		snap.sales[id] = &c
	}
	for _, d := range s.SaleDetails {
		c := *d
		snap.saleDetails = append(snap.saleDetails, &c)
	}
	for id, o := range s.Orders {
		c := *o
		snap.orders[id] = &c
	}
	for _, d := range s.OrderDetails {
		snap.orderDetails = append(snap.orderDetails, cloneOrderDetail(d))
	}
	for id, sess := range s.Sessions {
		snap.sessions[id] = cloneSession(sess)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.Products = snap.products
	s.Dimensions = snap.dimensions
	s.Movements = snap.movements
	s.LotSeq = snap.lotSeq
	s.Sales = snap.sales
	s.SaleDetails = snap.saleDetails
	s.Orders = snap.orders
	s.OrderDetails = snap.orderDetails
	s.Sessions = snap.sessions
	s.NextMovementID = snap.nextMovementID
}

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	if p.ExpirationDate != nil {
		exp := *p.ExpirationDate
		c.ExpirationDate = &exp
	}
	return &c
}

func cloneMovement(m *entity.InventoryMovement) *entity.InventoryMovement {
	c := *m
	if m.LotNumber != nil {
		lot := *m.LotNumber
		c.LotNumber = &lot
	}
	if m.ExpirationDate != nil {
		exp := *m.ExpirationDate
		c.ExpirationDate = &exp
	}
	if m.SaleID != nil {
		id := *m.SaleID
		c.SaleID = &id
	}
	if m.PurchaseOrderID != nil {
		id := *m.PurchaseOrderID
		c.PurchaseOrderID = &id
	}
	return &c
}

func cloneOrderDetail(d *entity.PurchaseOrderDetail) *entity.PurchaseOrderDetail {
	c := *d
	if d.ExpirationDate != nil {
		exp := *d.ExpirationDate
		c.ExpirationDate = &exp
	}
	return &c
}

func cloneSession(s *entity.CashSession) *entity.CashSession {
	c := *s
	if s.ClosedAt != nil {
		at := *s.ClosedAt
		c.ClosedAt = &at
	}
	return &c
}

// ─────────────────────────────── productos ───────────────────────────────

type productRepo struct{ s *Store }

func (r *productRepo) Create(ctx context.Context, p *entity.Product) error {
	if err := r.s.fail("products.Create"); err != nil {
		return err
	}
	for _, existing := range r.s.Products {
		if p.SKU != "" && existing.SKU == p.SKU {
			return domain.ErrDuplicate
		}
		if p.Barcode != "" && existing.Barcode == p.Barcode {
			return domain.ErrDuplicate
		}
	}
	r.s.Products[p.ID] = cloneProduct(p)
	return nil
}

func (r *productRepo) Update(ctx context.Context, p *entity.Product) error {
	if err := r.s.fail("products.Update"); err != nil {
		return err
	}
	existing, ok := r.s.Products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stock := existing.Stock // el stock solo se mueve por AdjustStock
	c := cloneProduct(p)
	c.Stock = stock
	r.s.Products[p.ID] = c
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if err := r.s.fail("products.GetByID"); err != nil {
		return nil, err
	}
	p, ok := r.s.Products[id]
	if !ok {
		return nil, nil
	}
	return cloneProduct(p), nil
}

func (r *productRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	if err := r.s.fail("products.GetByIDForUpdate"); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *productRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	if err := r.s.fail("products.GetBySKU"); err != nil {
		return nil, err
	}
	for _, p := range r.s.Products {
		if p.SKU != "" && p.SKU == sku {
			return cloneProduct(p), nil
		}
	}
	return nil, nil
}

func (r *productRepo) GetByName(ctx context.Context, name string) (*entity.Product, error) {
	if err := r.s.fail("products.GetByName"); err != nil {
		return nil, err
	}
	for _, p := range r.s.Products {
		if strings.EqualFold(p.Name, name) {
			return cloneProduct(p), nil
		}
	}
	return nil, nil
}

func (r *productRepo) AdjustStock(ctx context.Context, id string, delta int64) error {
	if err := r.s.fail("products.AdjustStock"); err != nil {
		return err
	}
	p, ok := r.s.Products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Stock += delta
	return nil
}

// ─────────────────────────────── dimensiones ──────────────────────────────

type dimensionRepo struct{ s *Store }

func (r *dimensionRepo) FindByName(ctx context.Context, kind entity.DimensionKind, name string) (*entity.Dimension, error) {
	if err := r.s.fail("dimensions.FindByName"); err != nil {
		return nil, err
	}
	var inactive *entity.Dimension
	for _, d := range r.s.Dimensions {
		if d.Kind != kind || !strings.EqualFold(d.Name, name) {
			continue
		}
		if d.Active {
			c := *d
			return &c, nil
		}
		inactive = d
	}
	if inactive != nil {
		c := *inactive
		return &c, nil
	}
	return nil, nil
}

func (r *dimensionRepo) Create(ctx context.Context, d *entity.Dimension) error {
	if err := r.s.fail("dimensions.Create"); err != nil {
		return err
	}
	c := *d
	r.s.Dimensions[d.ID] = &c
	return nil
}

func (r *dimensionRepo) Reactivate(ctx context.Context, kind entity.DimensionKind, id string) error {
	d, ok := r.s.Dimensions[id]
	if !ok || d.Kind != kind {
		return domain.ErrNotFound
	}
	d.Active = true
	return nil
}

func (r *dimensionRepo) SymbolInUse(ctx context.Context, symbol string) (bool, error) {
	for _, d := range r.s.Dimensions {
		if d.Kind == entity.DimensionUnitMeasure && d.Symbol == symbol {
			return true, nil
		}
	}
	return false, nil
}

// ─────────────────────────────── movimientos ──────────────────────────────

type movementRepo struct{ s *Store }

func (r *movementRepo) Append(ctx context.Context, m *entity.InventoryMovement) error {
	if err := r.s.fail("movements.Append"); err != nil {
		return err
	}
	m.ID = r.s.NextMovementID
	r.s.NextMovementID++
	r.s.Movements = append(r.s.Movements, cloneMovement(m))
	return nil
}

func (r *movementRepo) SumByProduct(ctx context.Context, productID string) (int64, error) {
	var sum int64
	for _, m := range r.s.Movements {
		if m.ProductID == productID {
			sum += m.SignedDelta()
		}
	}
	return sum, nil
}

func (r *movementRepo) ListByProduct(ctx context.Context, productID string, from, to *time.Time) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	for _, m := range r.s.Movements {
		if m.ProductID != productID {
			continue
		}
		if from != nil && m.Date.Before(*from) {
			continue
		}
		if to != nil && m.Date.After(*to) {
			continue
		}
		out = append(out, cloneMovement(m))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *movementRepo) LotBalances(ctx context.Context, productID string, beforeID int64) ([]entity.LotBalance, error) {
	type key struct {
		exp time.Time
		lot string
	}
	groups := map[key]*entity.LotBalance{}
	var order []key
	for _, m := range r.s.Movements {
		if m.ProductID != productID || m.ID >= beforeID {
			continue
		}
		if m.ExpirationDate == nil {
			continue
		}
		// Lote en NULL agrupa como cadena vacía: la condición es solo
		// sobre el vencimiento.
		lot := ""
		if m.LotNumber != nil {
			lot = *m.LotNumber
		}
		k := key{exp: *m.ExpirationDate, lot: lot}
		g, ok := groups[k]
		if !ok {
			g = &entity.LotBalance{
				ExpirationDate: *m.ExpirationDate,
				LotNumber:      lot,
				FirstMovement:  m.Date,
			}
			groups[k] = g
			order = append(order, k)
		}
		g.Balance += m.SignedDelta()
		if m.Date.Before(g.FirstMovement) {
			g.FirstMovement = m.Date
		}
	}
	out := make([]entity.LotBalance, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ExpirationDate.Equal(out[j].ExpirationDate) {
			return out[i].ExpirationDate.Before(out[j].ExpirationDate)
		}
		return out[i].FirstMovement.Before(out[j].FirstMovement)
	})
	return out, nil
}

func (r *movementRepo) BackfillLot(ctx context.Context, id int64, lotNumber string, expiration time.Time) error {
	for _, m := range r.s.Movements {
		if m.ID != id {
			continue
		}
		if m.LotNumber == nil {
			lot := lotNumber
			m.LotNumber = &lot
		}
		if m.ExpirationDate == nil {
			exp := expiration
			m.ExpirationDate = &exp
		}
		return nil
	}
	return domain.ErrNotFound
}

// ─────────────────────────── secuencias de lote ───────────────────────────

type lotSeqRepo struct{ s *Store }

func dayKey(day time.Time) string {
	return day.Format("20060102")
}

func (r *lotSeqRepo) Next(ctx context.Context, day time.Time) (int, error) {
	if err := r.s.fail("lotseq.Next"); err != nil {
		return 0, err
	}
	r.s.LotSeq[dayKey(day)]++
	return r.s.LotSeq[dayKey(day)], nil
}

func (r *lotSeqRepo) LastForUpdate(ctx context.Context, day time.Time) (int, error) {
	if err := r.s.fail("lotseq.LastForUpdate"); err != nil {
		return 0, err
	}
	return r.s.LotSeq[dayKey(day)], nil
}

func (r *lotSeqRepo) SetLast(ctx context.Context, day time.Time, seq int) error {
	if err := r.s.fail("lotseq.SetLast"); err != nil {
		return err
	}
	r.s.LotSeq[dayKey(day)] = seq
	return nil
}

// ──────────────────────────────── ventas ──────────────────────────────────

type saleRepo struct{ s *Store }

func (r *saleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	if err := r.s.fail("sales.Create"); err != nil {
		return err
	}
	c := *sale
	r.s.Sales[sale.ID] = &c
	return nil
}

func (r *saleRepo) CreateDetail(ctx context.Context, d *entity.SaleDetail) error {
	if err := r.s.fail("sales.CreateDetail"); err != nil {
		return err
	}
	c := *d
	r.s.SaleDetails = append(r.s.SaleDetails, &c)
	return nil
}

func (r *saleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	sale, ok := r.s.Sales[id]
	if !ok {
		return nil, nil
	}
	c := *sale
	return &c, nil
}

func (r *saleRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *saleRepo) ListDetails(ctx context.Context, saleID string) ([]*entity.SaleDetail, error) {
	var out []*entity.SaleDetail
	for _, d := range r.s.SaleDetails {
		if d.SaleID == saleID {
			c := *d
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *saleRepo) UpdateStatus(ctx context.Context, id, status, reason string) error {
	if err := r.s.fail("sales.UpdateStatus"); err != nil {
		return err
	}
	sale, ok := r.s.Sales[id]
	if !ok {
		return domain.ErrNotFound
	}
	sale.Status = status
	sale.AnnulReason = reason
	sale.UpdatedAt = time.Now()
	return nil
}

func (r *saleRepo) SumTotalsBySession(ctx context.Context, sessionID, status string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, sale := range r.s.Sales {
		if sale.CashSessionID == sessionID && sale.Status == status {
			total = total.Add(sale.Total)
		}
	}
	return total, nil
}

// ──────────────────────────── órdenes de compra ───────────────────────────

type purchaseRepo struct{ s *Store }

func (r *purchaseRepo) Create(ctx context.Context, o *entity.PurchaseOrder) error {
	if err := r.s.fail("purchases.Create"); err != nil {
		return err
	}
	c := *o
	r.s.Orders[o.ID] = &c
	return nil
}

func (r *purchaseRepo) CreateDetail(ctx context.Context, d *entity.PurchaseOrderDetail) error {
	if err := r.s.fail("purchases.CreateDetail"); err != nil {
		return err
	}
	r.s.OrderDetails = append(r.s.OrderDetails, cloneOrderDetail(d))
	return nil
}

func (r *purchaseRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	o, ok := r.s.Orders[id]
	if !ok {
		return nil, nil
	}
	c := *o
	return &c, nil
}

func (r *purchaseRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *purchaseRepo) ListDetails(ctx context.Context, orderID string) ([]*entity.PurchaseOrderDetail, error) {
	var out []*entity.PurchaseOrderDetail
	for _, d := range r.s.OrderDetails {
		if d.PurchaseOrderID == orderID {
			out = append(out, cloneOrderDetail(d))
		}
	}
	return out, nil
}

func (r *purchaseRepo) UpdateStatus(ctx context.Context, id, status string) error {
	if err := r.s.fail("purchases.UpdateStatus"); err != nil {
		return err
	}
	o, ok := r.s.Orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

// ──────────────────────────── sesiones de caja ────────────────────────────

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(ctx context.Context, sess *entity.CashSession) error {
	if err := r.s.fail("sessions.Create"); err != nil {
		return err
	}
	// Índice único parcial: a lo sumo una ABIERTA.
	for _, existing := range r.s.Sessions {
		if existing.Status == entity.CashSessionAbierta {
			return domain.ErrSessionAlreadyOpen
		}
	}
	r.s.Sessions[sess.ID] = cloneSession(sess)
	return nil
}

func (r *sessionRepo) GetOpen(ctx context.Context) (*entity.CashSession, error) {
	if err := r.s.fail("sessions.GetOpen"); err != nil {
		return nil, err
	}
	for _, sess := range r.s.Sessions {
		if sess.Status == entity.CashSessionAbierta {
			return cloneSession(sess), nil
		}
	}
	return nil, nil
}

func (r *sessionRepo) GetOpenForUpdate(ctx context.Context) (*entity.CashSession, error) {
	if err := r.s.fail("sessions.GetOpenForUpdate"); err != nil {
		return nil, err
	}
	return r.GetOpen(ctx)
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*entity.CashSession, error) {
	sess, ok := r.s.Sessions[id]
	if !ok {
		return nil, nil
	}
	return cloneSession(sess), nil
}

func (r *sessionRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.CashSession, error) {
	return r.GetByID(ctx, id)
}

func (r *sessionRepo) Close(ctx context.Context, sess *entity.CashSession) error {
	if err := r.s.fail("sessions.Close"); err != nil {
		return err
	}
	if _, ok := r.s.Sessions[sess.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.Sessions[sess.ID] = cloneSession(sess)
	return nil
}
