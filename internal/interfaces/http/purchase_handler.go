package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/inventory"
	"github.com/jhoicas/Almacen-api/pkg/validator"
)

// PurchaseHandler maneja compras de carrito: ejecución atómica y validación
// previa de checkout (protegido).
type PurchaseHandler struct {
	coordinator *inventory.CoordinatorUseCase
}

// NewPurchaseHandler construye el handler de compras.
func NewPurchaseHandler(coordinator *inventory.CoordinatorUseCase) *PurchaseHandler {
	return &PurchaseHandler{coordinator: coordinator}
}

// Create godoc
// @Summary      Procesar una compra de carrito
// @Description  Asigna bodega por línea, descuenta stock y persiste la transacción
//
//	de forma atómica. Con transaction_id la operación es idempotente:
//	repetir el mismo payload devuelve el resultado original.
//
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PurchaseRequest  true  "transaction_id (opcional), customer_name, payment_method, items"
// @Success      201   {object}  dto.PurchaseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchases [post]
func (h *PurchaseHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.PurchaseRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if fails := validator.ValidateStruct(in); len(fails) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validator.Describe(fails)})
	}
	out, err := h.coordinator.Execute(c.Context(), userID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Validate godoc
// @Summary      Validar un carrito sin comprar
// @Description  Corre el asignador en modo solo lectura: para cada ítem informa
//
//	si alguna bodega podría satisfacer la cantidad pedida. No bloquea
//	filas ni garantiza la compra posterior.
//
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ValidateCartRequest  true  "items"
// @Success      200   {object}  dto.ValidateCartResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/purchases/validate [post]
func (h *PurchaseHandler) Validate(c *fiber.Ctx) error {
	var in dto.ValidateCartRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if fails := validator.ValidateStruct(in); len(fails) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validator.Describe(fails)})
	}
	out, err := h.coordinator.Validate(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
