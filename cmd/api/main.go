package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/farmaplus/pos-api/internal/application/caja"
	"github.com/farmaplus/pos-api/internal/application/catalog"
	"github.com/farmaplus/pos-api/internal/application/importer"
	"github.com/farmaplus/pos-api/internal/application/inventory"
	"github.com/farmaplus/pos-api/internal/application/purchases"
	"github.com/farmaplus/pos-api/internal/application/sales"
	"github.com/farmaplus/pos-api/internal/infrastructure/postgres"
	httpRouter "github.com/farmaplus/pos-api/internal/interfaces/http"
	"github.com/farmaplus/pos-api/pkg/config"
	"github.com/farmaplus/pos-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repos atados al pool: solo para lecturas fuera de transacción.
	// Las escrituras reciben repos atados a la tx vía TxRunner.
	txRunner := postgres.NewTxRunner(pool)
	productRepo := postgres.NewProductRepository(pool)
	dimensionRepo := postgres.NewDimensionRepository(pool)
	movementRepo := postgres.NewInventoryMovementRepository(pool)
	sessionRepo := postgres.NewCashSessionRepository(pool)

	ledger := inventory.NewLedger()
	resolver := inventory.NewLotResolver()
	reconciler := catalog.NewReconciler()

	cajaUC := caja.NewUseCase(txRunner, sessionRepo)
	salesUC := sales.NewUseCase(txRunner, ledger, resolver)
	purchasesUC := purchases.NewUseCase(txRunner, ledger)
	importUC := importer.NewUseCase(txRunner, productRepo, dimensionRepo, reconciler, ledger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		CajaUC:      cajaUC,
		SalesUC:     salesUC,
		PurchasesUC: purchasesUC,
		ImportUC:    importUC,
		Ledger:      ledger,
		Movements:   movementRepo,
		Products:    productRepo,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
