package sales_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmaplus/pos-api/internal/application/apptest"
	"github.com/farmaplus/pos-api/internal/application/dto"
	"github.com/farmaplus/pos-api/internal/application/inventory"
	"github.com/farmaplus/pos-api/internal/application/sales"
	"github.com/farmaplus/pos-api/internal/domain"
	"github.com/farmaplus/pos-api/internal/domain/entity"
)

var errInfra = errors.New("falla de infraestructura simulada")

func newUseCase(store *apptest.Store) *sales.UseCase {
	return sales.NewUseCase(&apptest.Runner{Store: store}, inventory.NewLedger(), inventory.NewLotResolver())
}

func seedProduct(store *apptest.Store, id, name string, price, stock int64) {
	store.Products[id] = &entity.Product{
		ID:         id,
		Name:       name,
		CategoryID: "cat-1",
		Price:      decimal.NewFromInt(price),
		Stock:      stock,
		Active:     true,
	}
}

func seedOpenSession(store *apptest.Store) string {
	store.Sessions["ses-1"] = &entity.CashSession{
		ID:       "ses-1",
		OpenedBy: "cajero-1",
		Status:   entity.CashSessionAbierta,
		OpenedAt: time.Now(),
	}
	return "ses-1"
}

func TestCreateSale_SinSesionAbierta(t *testing.T) {
	store := apptest.NewStore()
	seedProduct(store, "p1", "Paracetamol 500mg", 5, 10)
	uc := newUseCase(store)

	_, err := uc.CreateSale(context.Background(), "user-1", dto.CreateSaleRequest{
		Lines: []dto.SaleLineRequest{{ProductID: "p1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrNoOpenSession)
	assert.Empty(t, store.Sales, "sin sesión no debe crearse nada")
}

func TestCreateSale_StockInsuficiente(t *testing.T) {
	store := apptest.NewStore()
	seedProduct(store, "p1", "Ibuprofeno 400mg", 8, 3)
	seedOpenSession(store)
	uc := newUseCase(store)

	_, err := uc.CreateSale(context.Background(), "user-1", dto.CreateSaleRequest{
		Lines: []dto.SaleLineRequest{{ProductID: "p1", Quantity: 5}},
	})

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "p1", stockErr.ProductID)
	assert.Equal(t, "Ibuprofeno 400mg", stockErr.ProductName)
	assert.Equal(t, int64(5), stockErr.Requested)
	assert.Equal(t, int64(3), stockErr.Available)

	assert.Empty(t, store.Sales)
	assert.Empty(t, store.Movements)
	assert.Equal(t, int64(3), store.Products["p1"].Stock, "el stock no debe moverse")
}

func TestCreateSale_LineasDuplicadasNoSobrevenden(t *testing.T) {
	store := apptest.NewStore()
	seedProduct(store, "p1", "Diclofenaco 50mg", 4, 5)
	seedOpenSession(store)
	uc := newUseCase(store)

	// Dos líneas del mismo producto: el chequeo debe acumular lo ya pedido
	// por la venta, no validar cada línea contra el stock previo a la venta.
	_, err := uc.CreateSale(context.Background(), "user-1", dto.CreateSaleRequest{
		Lines: []dto.SaleLineRequest{
			{ProductID: "p1", Quantity: 3},
			{ProductID: "p1", Quantity: 3},
		},
	})

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr, "3+3 sobre stock 5 debe rechazarse")
	assert.Equal(t, int64(6), stockErr.Requested, "lo solicitado es el acumulado de la venta")
	assert.Equal(t, int64(5), stockErr.Available)

	assert.Empty(t, store.Sales)
	assert.Empty(t, store.Movements)
	assert.Equal(t, int64(5), store.Products["p1"].Stock, "el stock nunca debe quedar negativo")
}

func TestCreateSale_LineasDuplicadasDentroDelStock(t *testing.T) {
	store := apptest.NewStore()
	seedProduct(store, "p1", "Diclofenaco 50mg", 4, 6)
	seedOpenSession(store)
	uc := newUseCase(store)

	resp, err := uc.CreateSale(context.Background(), "user-1", dto.CreateSaleRequest{
		Lines: []dto.SaleLineRequest{
			{ProductID: "p1", Quantity: 3, UnitPrice: decimal.NewFromInt(4)},
			{ProductID: "p1", Quantity: 3, UnitPrice: decimal.NewFromInt(4)},
		},
	})
	require.NoError(t, err, "3+3 sobre stock 6 agota el stock exacto")
	require.Len(t, resp.Details, 2, "cada línea conserva su detalle propio")
	assert.Equal(t, int64(0), store.Products["p1"].Stock)
	assert.Len(t, store.Movements, 2)
}

func TestCreateSale_SerializaConElCierreDeCaja(t *testing.T) {
	store := apptest.NewStore()
	seedProduct(store, "p1", "Paracetamol 500mg", 5, 10)
	seedOpenSession(store)
	// La venta debe tomar la sesión con bloqueo de fila, no con una lectura
	// suelta: así una venta en vuelo y el cierre de caja serializan.
	store.FailOn["sessions.GetOpenForUpdate"] = errInfra
	uc := newUseCase(store)

	_, err := uc.CreateSale(context.Background(), "user-1", dto.CreateSaleRequest{
		Lines: []dto.SaleLineRequest{{ProductID: "p1", Quantity: 1}},
	})
	require.ErrorIs(t, err, errInfra)
	assert.Empty(t, store.Sales)
	assert.Equal(t, int64(10), store.Products["p1"].Stock)
}

func TestCreateSale_TotalesYDescuentoDeStock(t *testing.T) {
	store := apptest.NewStore()
	seedProduct(store, "p1", "Amoxicilina 500mg", 5, 10)
	seedProduct(store, "p2", "Loratadina 10mg", 7, 4)
	sessionID := seedOpenSession(store)
	uc := newUseCase(store)

	resp, err := uc.CreateSale(context.Background(), "user-1", dto.CreateSaleRequest{
		CustomerID: "cli-1",
		Lines: []dto.SaleLineRequest{
			{ProductID: "p1", Quantity: 2, UnitPrice: decimal.NewFromInt(3)},
			{ProductID: "p2", Quantity: 1}, // precio cero: toma el del producto
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, entity.SaleEmitida, resp.Status)
	assert.Equal(t, sessionID, resp.CashSessionID)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(13)),
		"total = 2×3 + 1×7, obtuvo %s", resp.Total)
	require.Len(t, resp.Details, 2)
	assert.True(t, resp.Details[1].UnitPrice.Equal(decimal.NewFromInt(7)),
		"la línea sin precio hereda el del producto")

	// Caché de stock y ledger descontados en la misma transacción.
	assert.Equal(t, int64(8), store.Products["p1"].Stock)
	assert.Equal(t, int64(3), store.Products["p2"].Stock)
	require.Len(t, store.Movements, 2)
	for _, m := range store.Movements {
		assert.Equal(t, entity.MovementVenta, m.Type)
		assert.Equal(t, -1, m.Sign)
		require.NotNil(t, m.SaleID)
		assert.Equal(t, resp.ID, *m.SaleID)
		assert.NotNil(t, m.LotNumber, "todo movimiento de venta sale con lote resuelto")
		assert.NotNil(t, m.ExpirationDate)
	}
}

func TestCreateSale_ResuelveLotePorFIFO(t *testing.T) {
	store := apptest.NewStore()
	seedProduct(store, "p1", "Omeprazol 20mg", 5, 8)
	seedOpenSession(store)

	// Historial: lote B vence después que lote A; FIFO debe elegir A.
	expA := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	expB := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	lotA, lotB := "LOTE-A", "LOTE-B"
	store.Movements = []*entity.InventoryMovement{
		{ID: 1, ProductID: "p1", Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), Type: entity.MovementCompra, Quantity: 5, Sign: +1, LotNumber: &lotB, ExpirationDate: &expB},
		{ID: 2, ProductID: "p1", Date: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), Type: entity.MovementCompra, Quantity: 3, Sign: +1, LotNumber: &lotA, ExpirationDate: &expA},
	}
	store.NextMovementID = 3
	uc := newUseCase(store)

	resp, err := uc.CreateSale(context.Background(), "user-1", dto.CreateSaleRequest{
		Lines: []dto.SaleLineRequest{{ProductID: "p1", Quantity: 2}},
	})
	require.NoError(t, err)

	require.Len(t, store.Movements, 3)
	issued := store.Movements[2]
	require.NotNil(t, issued.LotNumber)
	assert.Equal(t, lotA, *issued.LotNumber, "debe salir del lote de vencimiento más temprano")
	require.NotNil(t, issued.ExpirationDate)
	assert.True(t, expA.Equal(*issued.ExpirationDate))
	assert.Equal(t, resp.ID, *issued.SaleID)
}

func TestCreateSale_FallaRevierteTodo(t *testing.T) {
	store := apptest.NewStore()
	seedProduct(store, "p1", "Metformina 850mg", 5, 10)
	seedProduct(store, "p2", "Losartán 50mg", 6, 10)
	seedOpenSession(store)
	store.FailOn["sales.CreateDetail"] = errInfra
	uc := newUseCase(store)

	_, err := uc.CreateSale(context.Background(), "user-1", dto.CreateSaleRequest{
		Lines: []dto.SaleLineRequest{
			{ProductID: "p1", Quantity: 2, UnitPrice: decimal.NewFromInt(3)},
			{ProductID: "p2", Quantity: 1, UnitPrice: decimal.NewFromInt(4)},
		},
	})
	require.ErrorIs(t, err, errInfra)

	// Atomicidad: ni cabecera, ni detalles, ni movimientos, ni descuento.
	assert.Empty(t, store.Sales)
	assert.Empty(t, store.SaleDetails)
	assert.Empty(t, store.Movements)
	assert.Equal(t, int64(10), store.Products["p1"].Stock)
	assert.Equal(t, int64(10), store.Products["p2"].Stock)
}

func TestCreateSale_EntradaInvalida(t *testing.T) {
	uc := newUseCase(apptest.NewStore())

	_, err := uc.CreateSale(context.Background(), "user-1", dto.CreateSaleRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "venta sin líneas")

	_, err = uc.CreateSale(context.Background(), "user-1", dto.CreateSaleRequest{
		Lines: []dto.SaleLineRequest{{ProductID: "p1", Quantity: 0}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad cero")
}

func TestAnnulSale_NoReponeStock(t *testing.T) {
	store := apptest.NewStore()
	seedProduct(store, "p1", "Aspirina 100mg", 5, 10)
	seedOpenSession(store)
	uc := newUseCase(store)

	resp, err := uc.CreateSale(context.Background(), "user-1", dto.CreateSaleRequest{
		Lines: []dto.SaleLineRequest{{ProductID: "p1", Quantity: 4, UnitPrice: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(6), store.Products["p1"].Stock)
	movementsBefore := len(store.Movements)

	annulled, err := uc.AnnulSale(context.Background(), "user-1", resp.ID, "error de digitación")
	require.NoError(t, err)
	assert.Equal(t, entity.SaleAnulada, annulled.Status)
	assert.Equal(t, "error de digitación", annulled.AnnulReason)

	// La anulación es solo de estado: el ledger y la caché quedan intactos.
	assert.Equal(t, int64(6), store.Products["p1"].Stock)
	assert.Len(t, store.Movements, movementsBefore)
}

func TestAnnulSale_SoloDesdeEmitida(t *testing.T) {
	store := apptest.NewStore()
	seedProduct(store, "p1", "Aspirina 100mg", 5, 10)
	seedOpenSession(store)
	uc := newUseCase(store)

	resp, err := uc.CreateSale(context.Background(), "user-1", dto.CreateSaleRequest{
		Lines: []dto.SaleLineRequest{{ProductID: "p1", Quantity: 1, UnitPrice: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)

	_, err = uc.AnnulSale(context.Background(), "user-1", resp.ID, "primera anulación")
	require.NoError(t, err)

	_, err = uc.AnnulSale(context.Background(), "user-1", resp.ID, "segunda anulación")
	var transErr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, entity.SaleAnulada, transErr.From)
}

func TestAnnulSale_RequiereMotivo(t *testing.T) {
	uc := newUseCase(apptest.NewStore())

	_, err := uc.AnnulSale(context.Background(), "user-1", "venta-1", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetSale(t *testing.T) {
	store := apptest.NewStore()
	seedProduct(store, "p1", "Aspirina 100mg", 5, 10)
	seedOpenSession(store)
	uc := newUseCase(store)

	created, err := uc.CreateSale(context.Background(), "user-1", dto.CreateSaleRequest{
		Lines: []dto.SaleLineRequest{{ProductID: "p1", Quantity: 2, UnitPrice: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)

	got, err := uc.GetSale(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	require.Len(t, got.Details, 1)
	assert.True(t, got.Details[0].Subtotal.Equal(decimal.NewFromInt(10)))

	_, err = uc.GetSale(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
