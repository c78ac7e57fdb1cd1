package importer_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmaplus/pos-api/internal/application/apptest"
	"github.com/farmaplus/pos-api/internal/application/catalog"
	"github.com/farmaplus/pos-api/internal/application/importer"
	"github.com/farmaplus/pos-api/internal/application/inventory"
	"github.com/farmaplus/pos-api/internal/domain/entity"
)

var testHeaders = []string{"Producto", "SKU", "Categoría", "Marca", "Precio", "Stock", "Vencimiento", "Lote", "Activo"}

func row(name, sku, category, brand, price, stock, expiration, lot, active string) []string {
	return []string{name, sku, category, brand, price, stock, expiration, lot, active}
}

func newUseCase(store *apptest.Store) *importer.UseCase {
	repos := store.Repos()
	return importer.NewUseCase(
		&apptest.Runner{Store: store},
		repos.Products,
		repos.Dimensions,
		catalog.NewReconciler(),
		inventory.NewLedger(),
	)
}

func TestPreview_NoPersisteNada(t *testing.T) {
	store := apptest.NewStore()
	uc := newUseCase(store)

	report, err := uc.Preview(context.Background(), testHeaders, [][]string{
		row("Paracetamol 500mg", "PAR-500", "Analgésicos", "Genfar", "5.50", "10", "2027-01-15", "", "Sí"),
		row("Ibuprofeno 400mg", "IBU-400", "Analgésicos", "", "no-es-precio", "5", "", "", ""),
		row("", "X-1", "Analgésicos", "", "1", "1", "", "", ""),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, 2, report.Failures[0].Row)
	assert.Contains(t, report.Failures[0].Message, "precio")
	assert.Equal(t, 3, report.Failures[1].Row)

	// El preview es de solo lectura.
	assert.Empty(t, store.Products)
	assert.Empty(t, store.Dimensions)
	assert.Empty(t, store.Movements)
}

func TestPreview_AnticipaCreacionYActualizacion(t *testing.T) {
	store := apptest.NewStore()
	store.Products["p1"] = &entity.Product{ID: "p1", Name: "Paracetamol 500mg", SKU: "PAR-500", CategoryID: "cat-1", Active: true}
	uc := newUseCase(store)

	report, err := uc.Preview(context.Background(), testHeaders, [][]string{
		row("Otro nombre", "PAR-500", "Analgésicos", "", "5", "0", "", "", ""),    // match por SKU
		row("paracetamol 500MG", "", "Analgésicos", "", "5", "0", "", "", ""),    // match por nombre
		row("Loratadina 10mg", "LOR-10", "Antialérgicos", "", "3", "0", "", "", ""),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, "updated", report.Rows[0].Action)
	assert.Equal(t, "updated", report.Rows[1].Action)
	assert.Equal(t, "created", report.Rows[2].Action)
}

func TestConfirm_LoteParcial(t *testing.T) {
	store := apptest.NewStore()
	uc := newUseCase(store)

	records := make([][]string, 0, 12)
	for i := 1; i <= 10; i++ {
		records = append(records, row(
			fmt.Sprintf("Producto %02d", i), fmt.Sprintf("SKU-%02d", i),
			"Analgésicos", "Genfar", "5", "3", "2027-06-01", "", "Sí"))
	}
	records = append(records, row("", "SKU-X", "Analgésicos", "", "1", "1", "", "", ""))        // sin nombre
	records = append(records, row("Producto Y", "SKU-Y", "Analgésicos", "", "1", "-4", "", "", "")) // stock negativo

	report, err := uc.Confirm(context.Background(), "user-1", testHeaders, records)
	require.NoError(t, err)

	assert.Equal(t, 10, report.Created)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, 11, report.Failures[0].Row)
	assert.Equal(t, 12, report.Failures[1].Row)

	// Las 10 filas válidas confirman aunque existan fallidas.
	assert.Len(t, store.Products, 10)
	assert.Len(t, store.Movements, 10)
	for _, m := range store.Movements {
		assert.Equal(t, entity.MovementAjusteEntrada, m.Type)
		assert.Equal(t, int64(3), m.Quantity)
		require.NotNil(t, m.LotNumber)
	}
}

func TestConfirm_AcumulaStockEnVezDeSobrescribir(t *testing.T) {
	store := apptest.NewStore()
	uc := newUseCase(store)

	report, err := uc.Confirm(context.Background(), "user-1", testHeaders, [][]string{
		row("Paracetamol 500mg", "PAR-500", "Analgésicos", "", "5", "5", "", "", "Sí"),
		row("Paracetamol 500mg", "PAR-500", "Analgésicos", "", "6", "3", "", "", "Sí"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Updated)

	require.Len(t, store.Products, 1)
	var product *entity.Product
	for _, p := range store.Products {
		product = p
	}
	assert.Equal(t, int64(8), product.Stock, "el stock se acumula vía ledger, 5 + 3")
	assert.True(t, product.Price.Equal(decimal.NewFromInt(6)), "el precio sí se sobrescribe")
	assert.Len(t, store.Movements, 2, "una entrada del ledger por fila con stock")
}

func TestConfirm_ReconciliaDimensiones(t *testing.T) {
	store := apptest.NewStore()
	store.Dimensions["d1"] = &entity.Dimension{ID: "d1", Kind: entity.DimensionCategory, Name: "Antibióticos", Active: false}
	uc := newUseCase(store)

	_, err := uc.Confirm(context.Background(), "user-1", testHeaders, [][]string{
		row("Amoxicilina 500mg", "AMX-500", "antibióticos", "", "8", "0", "", "", "Sí"), // reactiva la inactiva
		row("Azitromicina 500mg", "AZI-500", "ANTIBIÓTICOS", "", "9", "0", "", "", "Sí"),
		row("Loratadina 10mg", "LOR-10", "Antialérgicos", "", "3", "0", "", "", "Sí"), // crea una nueva
	})
	require.NoError(t, err)

	categories := 0
	for _, d := range store.Dimensions {
		if d.Kind == entity.DimensionCategory {
			categories++
			assert.True(t, d.Active)
		}
	}
	assert.Equal(t, 2, categories, "la repetida no se duplica; la inactiva se reactiva")
	for _, p := range store.Products {
		assert.NotEmpty(t, p.CategoryID)
	}
}

func TestConfirm_FilaFallidaRevierteSoloSusEscrituras(t *testing.T) {
	store := apptest.NewStore()
	store.Products["p0"] = &entity.Product{ID: "p0", Name: "Existente", Barcode: "750100000001", CategoryID: "cat-1", Active: true}
	uc := newUseCase(store)

	headers := []string{"Producto", "Código de Barras", "Categoría", "Stock"}
	report, err := uc.Confirm(context.Background(), "user-1", headers, [][]string{
		{"Producto Bueno", "750100000002", "Categoría A", "2"},
		// Colisión de código de barras: falla al crear, tras haber creado su
		// categoría nueva. El savepoint revierte ambas escrituras.
		{"Producto Choca", "750100000001", "Categoría B", "2"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Failures[0].Row)

	for _, d := range store.Dimensions {
		assert.NotEqual(t, "Categoría B", d.Name, "la dimensión de la fila fallida no debe sobrevivir")
	}
	assert.Len(t, store.Products, 2, "el existente más el de la fila buena")
}

func TestConfirm_LotesSecuencialesYFlush(t *testing.T) {
	store := apptest.NewStore()
	uc := newUseCase(store)

	_, err := uc.Confirm(context.Background(), "user-1", testHeaders, [][]string{
		row("Producto A", "A-1", "Analgésicos", "", "1", "2", "2027-06-01", "", "Sí"),
		row("Producto B", "B-1", "Analgésicos", "", "1", "2", "2027-06-01", "", "Sí"),
		row("Producto C", "C-1", "Analgésicos", "", "1", "2", "2027-06-01", "L-PROPIO", "Sí"),
	})
	require.NoError(t, err)

	require.Len(t, store.Movements, 3)
	lots := map[string]bool{}
	for _, m := range store.Movements {
		require.NotNil(t, m.LotNumber)
		lots[*m.LotNumber] = true
	}
	assert.True(t, lots["L-PROPIO"], "el lote suministrado se respeta")
	assert.Len(t, lots, 3, "los generados no se repiten dentro del lote de importación")

	// El contador del día queda persistido tras el Flush: dos lotes generados.
	total := 0
	for _, last := range store.LotSeq {
		total += last
	}
	assert.Equal(t, 2, total)
}

func TestConfirm_CabecerasInvalidasAbortaTodo(t *testing.T) {
	store := apptest.NewStore()
	uc := newUseCase(store)

	_, err := uc.Confirm(context.Background(), "user-1", []string{"SKU", "Precio"}, [][]string{{"X", "1"}})
	require.Error(t, err)
	assert.Empty(t, store.Products)
	assert.Empty(t, store.Movements)
}
