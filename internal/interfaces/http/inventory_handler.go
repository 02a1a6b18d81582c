package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/inventory"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/pkg/validator"
)

// InventoryHandler maneja movimientos administrativos, consultas de stock,
// sync por polling y verificación de integridad (protegido).
type InventoryHandler struct {
	ledger *inventory.LedgerUseCase
	sync   *inventory.SyncUseCase
	audit  *inventory.AuditUseCase
}

// NewInventoryHandler construye el handler de inventario.
func NewInventoryHandler(ledger *inventory.LedgerUseCase, sync *inventory.SyncUseCase, audit *inventory.AuditUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, sync: sync, audit: audit}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento administrativo (IN, ADJUSTMENT, TRANSFER)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, warehouse_id (o from/to para TRANSFER), type, quantity, unit_cost (entradas)"
// @Success      201   {array}   dto.StockRecordDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if fails := validator.ValidateStruct(in); len(fails) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validator.Describe(fails)})
	}

	warehouseID := in.WarehouseID
	toWarehouseID := ""
	if in.Type == entity.MovementTypeTRANSFER {
		warehouseID = in.FromWarehouseID
		toWarehouseID = in.ToWarehouseID
	}
	unitCost := decimal.Zero
	if in.UnitCost != nil {
		unitCost = *in.UnitCost
	}

	updated, err := h.ledger.RegisterMovement(c.Context(), userID, inventory.ApplyMovementInput{
		ProductID:   in.ProductID,
		WarehouseID: warehouseID,
		Type:        in.Type,
		Quantity:    in.Quantity,
		UnitCost:    unitCost,
		Now:         time.Now(),
	}, toWarehouseID)
	if err != nil {
		return respondError(c, err)
	}

	out := make([]dto.StockRecordDTO, 0, len(updated))
	for _, r := range updated {
		out = append(out, dto.StockRecordDTO{
			ProductID:     r.ProductID,
			WarehouseID:   r.WarehouseID,
			CurrentStock:  r.CurrentStock,
			ReservedStock: r.ReservedStock,
			Available:     r.Available(),
			ReorderPoint:  r.ReorderPoint,
			Status:        r.Status,
			UpdatedAt:     r.UpdatedAt,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetStock godoc
// @Summary      Stock de un producto por bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {array}   dto.StockRecordDTO
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/{productId} [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	productID := c.Params("productId")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "productId requerido"})
	}
	records, err := h.sync.GetProductStock(c.Context(), productID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(records)
}

// GetMovement godoc
// @Summary      Consultar un movimiento del libro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	out, err := h.sync.GetMovement(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListMovements godoc
// @Summary      Movimientos de una bodega en un rango de fechas
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  true   "ID de la bodega"
// @Param        from          query  string  false  "Desde (RFC 3339)"
// @Param        to            query  string  false  "Hasta (RFC 3339)"
// @Param        limit         query  int     false  "Tamaño de página"
// @Param        offset        query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.MovementDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	warehouseID := c.Query("warehouse_id")
	if warehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetro warehouse_id requerido"})
	}
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser RFC 3339"})
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser RFC 3339"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	movements, err := h.sync.ListWarehouseMovements(c.Context(), warehouseID, from, to, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(movements)
}

// GetKardex godoc
// @Summary      Kardex de un producto en una bodega
// @Description  Historial cronológico de movimientos; la suma de las cantidades
//
//	reproduce el stock actual.
//
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId    path  string  true  "ID del producto"
// @Param        warehouseId  path  string  true  "ID de la bodega"
// @Success      200  {array}  dto.MovementDTO
// @Router       /api/inventory/kardex/{productId}/{warehouseId} [get]
func (h *InventoryHandler) GetKardex(c *fiber.Ctx) error {
	movements, err := h.sync.GetKardex(c.Context(), c.Params("productId"), c.Params("warehouseId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(movements)
}

func parseTimeQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetUpdates godoc
// @Summary      Cambios de stock desde una marca de tiempo (sync por polling)
// @Description  Devuelve el stock agregado por producto para todo lo actualizado
//
//	después de ?since (RFC 3339). El caller guarda el last_updated
//	mayor y lo usa como since de la siguiente consulta.
//
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        since  query  string  true  "Marca de tiempo RFC 3339"
// @Success      200  {array}   dto.StockUpdateDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/updates [get]
func (h *InventoryHandler) GetUpdates(c *fiber.Ctx) error {
	sinceRaw := c.Query("since")
	if sinceRaw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetro since requerido (RFC 3339)"})
	}
	since, err := time.Parse(time.RFC3339, sinceRaw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "since debe ser RFC 3339"})
	}
	updates, err := h.sync.GetUpdates(c.Context(), since)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"count":   len(updates),
		"updates": updates,
	})
}

// VerifyIntegrity godoc
// @Summary      Verificar el libro de movimientos contra el stock almacenado
// @Description  Recalcula cada fila de stock como la suma de sus movimientos y
//
//	reporta los descuadres. Nunca corrige automáticamente.
//
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Verificar solo esta fila (junto con warehouse_id)"
// @Param        warehouse_id  query  string  false  "Verificar solo esta fila (junto con product_id)"
// @Success      200  {object}  dto.IntegrityReportDTO
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/integrity [get]
func (h *InventoryHandler) VerifyIntegrity(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	warehouseID := c.Query("warehouse_id")
	if productID != "" || warehouseID != "" {
		if productID == "" || warehouseID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y warehouse_id van juntos"})
		}
		if err := h.audit.VerifyStockRecord(c.Context(), productID, warehouseID); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"consistent": true})
	}
	report, err := h.audit.VerifyAll(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
