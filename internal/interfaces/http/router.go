package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/auth"
	"github.com/jhoicas/Almacen-api/internal/application/catalog"
	"github.com/jhoicas/Almacen-api/internal/application/inventory"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/ws"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	CatalogUC     *catalog.CatalogUseCase
	CoordinatorUC *inventory.CoordinatorUseCase
	LedgerUC      *inventory.LedgerUseCase
	ReservationUC *inventory.ReservationUseCase
	SyncUC        *inventory.SyncUseCase
	AuditUC       *inventory.AuditUseCase
	Hub           *ws.Hub
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	protected.Get("/auth/me", authHandler.Me)

	// Catálogo: lectura para todos, altas solo admin
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	products := protected.Group("/products")
	products.Get("/", catalogHandler.ListProducts)
	products.Get("/:id", catalogHandler.GetProduct)
	products.Post("/", RequireRole(entity.RoleAdmin), catalogHandler.CreateProduct)

	warehouses := protected.Group("/warehouses")
	warehouses.Get("/", catalogHandler.ListWarehouses)
	warehouses.Post("/", RequireRole(entity.RoleAdmin), catalogHandler.CreateWarehouse)

	// Compras (protegido)
	purchases := protected.Group("/purchases")
	purchaseHandler := NewPurchaseHandler(deps.CoordinatorUC)
	purchases.Post("/", purchaseHandler.Create)
	purchases.Post("/validate", purchaseHandler.Validate)

	// Reservas (protegido)
	reservations := protected.Group("/reservations")
	reservationHandler := NewReservationHandler(deps.ReservationUC)
	reservations.Post("/", reservationHandler.Create)
	reservations.Get("/", reservationHandler.ListByQuote)
	reservations.Get("/:id", reservationHandler.GetByID)
	reservations.Post("/:id/release", reservationHandler.Release)
	reservations.Post("/:id/convert", reservationHandler.Convert)

	// Inventario: movimientos administrativos solo admin; lecturas para todos
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.LedgerUC, deps.SyncUC, deps.AuditUC)
	invGroup.Post("/movements", RequireRole(entity.RoleAdmin), inventoryHandler.RegisterMovement)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Get("/movements/:id", inventoryHandler.GetMovement)
	invGroup.Get("/kardex/:productId/:warehouseId", inventoryHandler.GetKardex)
	invGroup.Get("/stock/:productId", inventoryHandler.GetStock)
	invGroup.Get("/updates", inventoryHandler.GetUpdates)
	invGroup.Get("/integrity", RequireRole(entity.RoleAdmin), inventoryHandler.VerifyIntegrity)

	// Difusión websocket de cambios de stock
	if deps.Hub != nil {
		RegisterStockWS(app, deps.Hub)
	}
}
