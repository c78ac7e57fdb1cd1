package http

import (
	"bytes"
	"encoding/csv"

	"github.com/gofiber/fiber/v2"

	"github.com/farmaplus/pos-api/internal/application/dto"
	"github.com/farmaplus/pos-api/internal/application/importer"
)

// ImportHandler maneja la importación masiva de catálogo en dos fases:
// preview (solo lectura) y confirm (un solo lote transaccional).
type ImportHandler struct {
	uc *importer.UseCase
}

// NewImportHandler construye el handler.
func NewImportHandler(uc *importer.UseCase) *ImportHandler {
	return &ImportHandler{uc: uc}
}

// Preview parsea el CSV del cuerpo y reporta qué haría cada fila sin
// persistir nada.
func (h *ImportHandler) Preview(c *fiber.Ctx) error {
	headers, records, err := readCSVBody(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "CSV ilegible"})
	}
	report, err := h.uc.Preview(c.Context(), headers, records)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// Confirm aplica el lote completo. Las filas fallidas se revierten de forma
// individual; el reporte detalla los conteos y las primeras fallas.
func (h *ImportHandler) Confirm(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	headers, records, err := readCSVBody(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "CSV ilegible"})
	}
	report, err := h.uc.Confirm(c.Context(), userID, headers, records)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// readCSVBody lee el cuerpo como CSV: primera fila cabeceras, resto datos.
// FieldsPerRecord -1 admite filas cortas; el orquestador decide fila a fila.
func readCSVBody(c *fiber.Ctx) ([]string, [][]string, error) {
	reader := csv.NewReader(bytes.NewReader(c.Body()))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}
