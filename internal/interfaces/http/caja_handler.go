package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farmaplus/pos-api/internal/application/caja"
	"github.com/farmaplus/pos-api/internal/application/dto"
	"github.com/farmaplus/pos-api/internal/domain/entity"
)

// CajaHandler maneja las peticiones HTTP de sesiones de caja (protegido).
type CajaHandler struct {
	uc *caja.UseCase
}

// NewCajaHandler construye el handler.
func NewCajaHandler(uc *caja.UseCase) *CajaHandler {
	return &CajaHandler{uc: uc}
}

// Open abre una sesión de caja con el balance inicial declarado.
func (h *CajaHandler) Open(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.OpenCashSessionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	session, err := h.uc.Open(c.Context(), userID, in.OpeningBalance)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSessionResponse(session))
}

// Close cierra la sesión indicada y devuelve el balance calculado.
func (h *CajaHandler) Close(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	session, err := h.uc.Close(c.Context(), c.Params("id"), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toSessionResponse(session))
}

// GetOpen devuelve la sesión ABIERTA actual, o 409 si no hay ninguna.
func (h *CajaHandler) GetOpen(c *fiber.Ctx) error {
	session, err := h.uc.VerifyOpen(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toSessionResponse(session))
}

func toSessionResponse(s *entity.CashSession) dto.CashSessionResponse {
	return dto.CashSessionResponse{
		ID:             s.ID,
		Status:         s.Status,
		OpenedBy:       s.OpenedBy,
		ClosedBy:       s.ClosedBy,
		OpeningBalance: s.OpeningBalance,
		ClosingBalance: s.ClosingBalance,
		OpenedAt:       s.OpenedAt,
		ClosedAt:       s.ClosedAt,
	}
}
