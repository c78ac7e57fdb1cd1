package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/farmaplus/pos-api/internal/application/dto"
	"github.com/farmaplus/pos-api/internal/application/inventory"
	"github.com/farmaplus/pos-api/internal/domain/entity"
	"github.com/farmaplus/pos-api/internal/domain/repository"
)

// InventoryHandler maneja las consultas de inventario (protegido): kardex y
// verificación de consistencia. Los movimientos nacen de ventas, recepciones
// de compra e importaciones, nunca de un endpoint directo; la única escritura
// expuesta es el backfill de lote y vencimiento en NULL.
type InventoryHandler struct {
	ledger    *inventory.Ledger
	movements repository.InventoryMovementRepository
	products  repository.ProductRepository
}

// NewInventoryHandler construye el handler con repositorios atados al pool.
func NewInventoryHandler(ledger *inventory.Ledger, movements repository.InventoryMovementRepository, products repository.ProductRepository) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, movements: movements, products: products}
}

// Kardex devuelve el historial de movimientos de un producto, con filtros
// opcionales ?from= y ?to= en formato 2006-01-02.
func (h *InventoryHandler) Kardex(c *fiber.Ctx) error {
	productID := c.Params("id")
	from, err := parseDateQuery(c.Query("from"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido, use AAAA-MM-DD"})
	}
	to, err := parseDateQuery(c.Query("to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido, use AAAA-MM-DD"})
	}
	movements, err := h.ledger.Kardex(c.Context(), h.movements, productID, from, to)
	if err != nil {
		return respondError(c, err)
	}
	entries := make([]dto.KardexEntryResponse, 0, len(movements))
	for _, m := range movements {
		entries = append(entries, toKardexEntry(m))
	}
	return c.JSON(fiber.Map{"product_id": productID, "entries": entries})
}

// Consistency contrasta la caché de stock del producto contra la suma del
// ledger. Una divergencia es un bug de integridad, no un estado esperado.
func (h *InventoryHandler) Consistency(c *fiber.Ctx) error {
	report, err := h.ledger.VerifyConsistency(c.Context(), h.movements, h.products, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.StockConsistencyResponse{
		ProductID:   report.ProductID,
		CachedStock: report.CachedStock,
		LedgerStock: report.LedgerStock,
		Consistent:  report.Consistent,
	})
}

// BackfillLot completa lote y vencimiento de un movimiento con esas columnas
// en NULL. Las columnas ya pobladas no se tocan.
func (h *InventoryHandler) BackfillLot(c *fiber.Ctx) error {
	movementID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id de movimiento inválido"})
	}
	var in dto.BackfillLotRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.ledger.Backfill(c.Context(), h.movements, movementID, in.LotNumber, in.ExpirationDate); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": movementID, "lot_number": in.LotNumber})
}

func parseDateQuery(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toKardexEntry(m *entity.InventoryMovement) dto.KardexEntryResponse {
	e := dto.KardexEntryResponse{
		ID:             m.ID,
		Date:           m.Date,
		Type:           m.Type,
		Quantity:       m.Quantity,
		Sign:           m.Sign,
		ExpirationDate: m.ExpirationDate,
		Notes:          m.Notes,
	}
	if m.LotNumber != nil {
		e.LotNumber = *m.LotNumber
	}
	if m.SaleID != nil {
		e.SaleID = *m.SaleID
	}
	if m.PurchaseOrderID != nil {
		e.PurchaseID = *m.PurchaseOrderID
	}
	return e
}
