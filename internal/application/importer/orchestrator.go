package importer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmaplus/pos-api/internal/application/catalog"
	"github.com/farmaplus/pos-api/internal/application/dto"
	"github.com/farmaplus/pos-api/internal/application/inventory"
	"github.com/farmaplus/pos-api/internal/application/ports"
	"github.com/farmaplus/pos-api/internal/domain/entity"
	"github.com/farmaplus/pos-api/internal/domain/repository"
)

// maxFailureDetails tope de fallas detalladas incluidas en el reporte.
const maxFailureDetails = 25

// Formatos de fecha aceptados en la columna de vencimiento.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006"}

// UseCase orquesta la importación masiva de catálogo en dos fases.
//
// Preview: parsea y valida cada fila de forma independiente y anticipa la
// acción (crear o actualizar) consultando el catálogo en modo lectura, sin
// confirmar nada.
//
// Confirm: re-ejecuta dentro de UNA transacción; por fila reconcilia las
// dimensiones, hace upsert del producto (por SKU, luego por nombre,
// acumulando stock en vez de sobreescribirlo) y agrega un movimiento del
// ledger con el contador de lotes compartido del lote de importación. Una
// fila que falla se registra y no aborta a las demás (savepoint por fila);
// una falla del propio importador antes del manejo por fila revierte todo.
type UseCase struct {
	txRunner   ports.TxRunner
	products   repository.ProductRepository
	dimensions repository.DimensionRepository
	reconciler *catalog.Reconciler
	ledger     *inventory.Ledger
}

// NewUseCase construye el orquestador. products y dimensions son repos de solo
// lectura (pool) para el preview.
func NewUseCase(
	txRunner ports.TxRunner,
	products repository.ProductRepository,
	dimensions repository.DimensionRepository,
	reconciler *catalog.Reconciler,
	ledger *inventory.Ledger,
) *UseCase {
	return &UseCase{
		txRunner:   txRunner,
		products:   products,
		dimensions: dimensions,
		reconciler: reconciler,
		ledger:     ledger,
	}
}

// parsedRow fila ya validada contra las reglas del producto.
type parsedRow struct {
	name         string
	sku          string
	barcode      string
	category     string
	brand        string
	presentation string
	unit         string
	lot          string
	price        decimal.Decimal
	stock        int64
	expiration   *time.Time
	active       bool
}

// parseRow valida una fila de forma independiente. Los errores son
// corregibles por el usuario (equivalen a ValidationError).
func parseRow(m HeaderMap, record []string) (*parsedRow, error) {
	row := &parsedRow{
		name:         strings.TrimSpace(m.Value(record, FieldName)),
		sku:          strings.TrimSpace(m.Value(record, FieldSKU)),
		barcode:      strings.TrimSpace(m.Value(record, FieldBarcode)),
		category:     strings.TrimSpace(m.Value(record, FieldCategory)),
		brand:        strings.TrimSpace(m.Value(record, FieldBrand)),
		presentation: strings.TrimSpace(m.Value(record, FieldPresentation)),
		unit:         strings.TrimSpace(m.Value(record, FieldUnit)),
		lot:          strings.TrimSpace(m.Value(record, FieldLot)),
		price:        decimal.Zero,
		active:       ParseSiNo(m.Value(record, FieldActive)).Value(),
	}
	if row.name == "" {
		return nil, fmt.Errorf("nombre de producto vacío")
	}
	if row.category == "" {
		return nil, fmt.Errorf("categoría vacía (obligatoria)")
	}
	if raw := strings.TrimSpace(m.Value(record, FieldPrice)); raw != "" {
		price, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
		if err != nil || price.LessThan(decimal.Zero) {
			return nil, fmt.Errorf("precio inválido: %q", raw)
		}
		row.price = price
	}
	if raw := strings.TrimSpace(m.Value(record, FieldStock)); raw != "" {
		stock, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || stock < 0 {
			return nil, fmt.Errorf("stock inválido: %q", raw)
		}
		row.stock = stock
	}
	if raw := strings.TrimSpace(m.Value(record, FieldExpiration)); raw != "" {
		exp, err := parseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("fecha de vencimiento inválida: %q", raw)
		}
		row.expiration = &exp
	}
	return row, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("formato de fecha no reconocido")
}

// Preview valida las filas sin persistir nada.
func (uc *UseCase) Preview(ctx context.Context, headers []string, records [][]string) (*dto.ImportReport, error) {
	m, err := MapHeaders(headers)
	if err != nil {
		return nil, err
	}
	report := &dto.ImportReport{}
	for i, record := range records {
		rowNum := i + 1
		row, err := parseRow(m, record)
		if err != nil {
			addFailure(report, rowNum, err)
			continue
		}
		action, err := uc.previewAction(ctx, row)
		if err != nil {
			return nil, err
		}
		report.Rows = append(report.Rows, dto.ImportRowResult{Row: rowNum, OK: true, Action: action})
		if action == "created" {
			report.Created++
		} else {
			report.Updated++
		}
	}
	return report, nil
}

// previewAction anticipa si la fila crearía o actualizaría un producto
// (merge por SKU, luego por nombre), sin escribir.
func (uc *UseCase) previewAction(ctx context.Context, row *parsedRow) (string, error) {
	if row.sku != "" {
		p, err := uc.products.GetBySKU(ctx, row.sku)
		if err != nil {
			return "", err
		}
		if p != nil {
			return "updated", nil
		}
	}
	p, err := uc.products.GetByName(ctx, row.name)
	if err != nil {
		return "", err
	}
	if p != nil {
		return "updated", nil
	}
	return "created", nil
}

// Confirm re-ejecuta el lote validado dentro de una transacción. Las filas
// fallidas se registran en el reporte; solo una falla de infraestructura
// (abrir/confirmar la transacción, cabeceras inválidas) aborta el lote entero.
func (uc *UseCase) Confirm(ctx context.Context, userID string, headers []string, records [][]string) (*dto.ImportReport, error) {
	m, err := MapHeaders(headers)
	if err != nil {
		return nil, err
	}
	report := &dto.ImportReport{}
	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		batch := inventory.NewBatchSequencer(r.LotSeq, time.Now())
		for i, record := range records {
			rowNum := i + 1
			row, err := parseRow(m, record)
			if err != nil {
				addFailure(report, rowNum, err)
				continue
			}
			var action string
			// Savepoint por fila: la falla revierte solo esta fila.
			err = r.Nested.Run(ctx, func(nr ports.Repos) error {
				var applyErr error
				action, applyErr = uc.applyRow(ctx, nr, userID, row, batch)
				return applyErr
			})
			if err != nil {
				addFailure(report, rowNum, err)
				continue
			}
			report.Rows = append(report.Rows, dto.ImportRowResult{Row: rowNum, OK: true, Action: action})
			if action == "created" {
				report.Created++
			} else {
				report.Updated++
			}
		}
		return batch.Flush(ctx)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// applyRow reconcilia dimensiones, hace upsert del producto y agrega el
// movimiento de stock de la fila. Corre dentro del savepoint de la fila.
func (uc *UseCase) applyRow(ctx context.Context, r ports.Repos, userID string, row *parsedRow, seq inventory.LotSequencer) (string, error) {
	categoryID, err := uc.reconciler.Resolve(ctx, r.Dimensions, entity.DimensionCategory, row.category)
	if err != nil {
		return "", err
	}
	brandID := ""
	if row.brand != "" {
		brandID, err = uc.reconciler.Resolve(ctx, r.Dimensions, entity.DimensionBrand, row.brand)
		if err != nil {
			return "", err
		}
	}
	// Presentación y unidad se reconcilian para mantener vivas las tablas de
	// referencia; en el producto quedan como etiqueta libre.
	if row.presentation != "" {
		if _, err := uc.reconciler.Resolve(ctx, r.Dimensions, entity.DimensionPresentation, row.presentation); err != nil {
			return "", err
		}
	}
	if row.unit != "" {
		if _, err := uc.reconciler.Resolve(ctx, r.Dimensions, entity.DimensionUnitMeasure, row.unit); err != nil {
			return "", err
		}
	}

	product, err := uc.findTarget(ctx, r, row)
	if err != nil {
		return "", err
	}

	now := time.Now()
	action := "updated"
	if product == nil {
		action = "created"
		product = &entity.Product{
			ID:             uuid.New().String(),
			Name:           row.name,
			SKU:            row.sku,
			Barcode:        row.barcode,
			CategoryID:     categoryID,
			BrandID:        brandID,
			Price:          row.price,
			Stock:          0, // el stock entra solo vía ledger
			ExpirationDate: row.expiration,
			Presentation:   row.presentation,
			UnitMeasure:    row.unit,
			Active:         row.active,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := r.Products.Create(ctx, product); err != nil {
			return "", err
		}
	} else {
		product.CategoryID = categoryID
		if brandID != "" {
			product.BrandID = brandID
		}
		if !row.price.IsZero() {
			product.Price = row.price
		}
		if row.sku != "" {
			product.SKU = row.sku
		}
		if row.barcode != "" {
			product.Barcode = row.barcode
		}
		if row.presentation != "" {
			product.Presentation = row.presentation
		}
		if row.unit != "" {
			product.UnitMeasure = row.unit
		}
		if row.expiration != nil && product.ExpirationDate == nil {
			product.ExpirationDate = row.expiration
		}
		product.Active = row.active
		product.UpdatedAt = now
		if err := r.Products.Update(ctx, product); err != nil {
			return "", err
		}
	}

	if row.stock > 0 {
		m := &entity.InventoryMovement{
			ProductID: product.ID,
			Date:      now,
			Type:      entity.MovementAjusteEntrada,
			Quantity:  row.stock,
			CreatedBy: userID,
			Notes:     "importación masiva",
		}
		if row.lot != "" {
			lot := row.lot
			m.LotNumber = &lot
		} else {
			lot, err := seq.NextLot(ctx)
			if err != nil {
				return "", err
			}
			m.LotNumber = &lot
		}
		if row.expiration != nil {
			exp := *row.expiration
			m.ExpirationDate = &exp
		} else if product.ExpirationDate != nil {
			exp := *product.ExpirationDate
			m.ExpirationDate = &exp
		}
		if err := uc.ledger.Apply(ctx, r.Movements, r.Products, m); err != nil {
			return "", err
		}
	}
	return action, nil
}

// findTarget localiza el producto destino del merge: por SKU primero, por
// nombre después.
func (uc *UseCase) findTarget(ctx context.Context, r ports.Repos, row *parsedRow) (*entity.Product, error) {
	if row.sku != "" {
		p, err := r.Products.GetBySKU(ctx, row.sku)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}
	return r.Products.GetByName(ctx, row.name)
}

func addFailure(report *dto.ImportReport, rowNum int, err error) {
	report.Failed++
	result := dto.ImportRowResult{Row: rowNum, OK: false, Message: err.Error()}
	report.Rows = append(report.Rows, result)
	if len(report.Failures) < maxFailureDetails {
		report.Failures = append(report.Failures, result)
	}
}
