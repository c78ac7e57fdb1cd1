package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farmaplus/pos-api/internal/application/dto"
	"github.com/farmaplus/pos-api/internal/application/purchases"
)

// PurchasesHandler maneja las peticiones HTTP de órdenes de compra (protegido).
type PurchasesHandler struct {
	uc *purchases.UseCase
}

// NewPurchasesHandler construye el handler.
func NewPurchasesHandler(uc *purchases.UseCase) *PurchasesHandler {
	return &PurchasesHandler{uc: uc}
}

// Create crea una orden de compra en estado CREADO.
func (h *PurchasesHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreatePurchaseOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.uc.CreateOrder(c.Context(), userID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Transition mueve la orden de estado. Recibirla (RECIBIDO) ingresa el stock.
func (h *PurchasesHandler) Transition(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.TransitionPurchaseOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.Transition(c.Context(), userID, c.Params("id"), in.Status); err != nil {
		return respondError(c, err)
	}
	resp, err := h.uc.GetOrder(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// GetByID devuelve una orden con su detalle.
func (h *PurchasesHandler) GetByID(c *fiber.Ctx) error {
	resp, err := h.uc.GetOrder(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}
