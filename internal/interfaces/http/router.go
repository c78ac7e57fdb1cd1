package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farmaplus/pos-api/internal/application/caja"
	"github.com/farmaplus/pos-api/internal/application/importer"
	"github.com/farmaplus/pos-api/internal/application/inventory"
	"github.com/farmaplus/pos-api/internal/application/purchases"
	"github.com/farmaplus/pos-api/internal/application/sales"
	"github.com/farmaplus/pos-api/internal/domain/repository"
)

// Roles conocidos por la API.
const (
	RoleAdmin     = "admin"
	RoleCajero    = "cajero"
	RoleBodeguero = "bodeguero"
)

// RouterDeps dependencias para el router. Los repositorios van atados al pool
// y sirven solo lecturas; toda escritura pasa por los casos de uso.
type RouterDeps struct {
	CajaUC      *caja.UseCase
	SalesUC     *sales.UseCase
	PurchasesUC *purchases.UseCase
	ImportUC    *importer.UseCase
	Ledger      *inventory.Ledger
	Movements   repository.InventoryMovementRepository
	Products    repository.ProductRepository
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Caja (protegido; la apertura y el cierre son de cajeros)
	cajaGroup := protected.Group("/caja", RequireRole(RoleAdmin, RoleCajero))
	cajaHandler := NewCajaHandler(deps.CajaUC)
	cajaGroup.Post("/abrir", cajaHandler.Open)
	cajaGroup.Post("/:id/cerrar", cajaHandler.Close)
	cajaGroup.Get("/abierta", cajaHandler.GetOpen)

	// Ventas (protegido)
	salesGroup := protected.Group("/ventas", RequireRole(RoleAdmin, RoleCajero))
	salesHandler := NewSalesHandler(deps.SalesUC)
	salesGroup.Post("/", salesHandler.Create)
	salesGroup.Post("/:id/anular", salesHandler.Annul)
	salesGroup.Get("/:id", salesHandler.GetByID)

	// Órdenes de compra (protegido; recepción de mercadería es de bodega)
	purchasesGroup := protected.Group("/compras", RequireRole(RoleAdmin, RoleBodeguero))
	purchasesHandler := NewPurchasesHandler(deps.PurchasesUC)
	purchasesGroup.Post("/", purchasesHandler.Create)
	purchasesGroup.Post("/:id/transicion", purchasesHandler.Transition)
	purchasesGroup.Get("/:id", purchasesHandler.GetByID)

	// Inventario (protegido; el backfill de lote es la única escritura)
	invGroup := protected.Group("/inventario")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Movements, deps.Products)
	invGroup.Get("/:id/kardex", inventoryHandler.Kardex)
	invGroup.Get("/:id/consistencia", inventoryHandler.Consistency)
	invGroup.Post("/movimientos/:id/lote", RequireRole(RoleAdmin, RoleBodeguero), inventoryHandler.BackfillLot)

	// Importación masiva (protegido, dos fases)
	importGroup := protected.Group("/importaciones", RequireRole(RoleAdmin, RoleBodeguero))
	importHandler := NewImportHandler(deps.ImportUC)
	importGroup.Post("/preview", importHandler.Preview)
	importGroup.Post("/confirmar", importHandler.Confirm)
}
