package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/LIFESTACK29/raha-send-backend/internal/address"
	"github.com/LIFESTACK29/raha-send-backend/internal/config"
	"github.com/LIFESTACK29/raha-send-backend/internal/identity"
	"github.com/LIFESTACK29/raha-send-backend/internal/middleware"
	"github.com/LIFESTACK29/raha-send-backend/internal/notification"
	"github.com/LIFESTACK29/raha-send-backend/internal/paystack"
	"github.com/LIFESTACK29/raha-send-backend/internal/shipment"
	"github.com/LIFESTACK29/raha-send-backend/internal/wallet"
	"github.com/LIFESTACK29/raha-send-backend/internal/webhook"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
//
// The webhook route sits outside auth and idempotency on purpose: the
// processor authenticates with its own signature and does not send an
// Idempotency-Key; the reconciler deduplicates by funding reference.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	// Stores: Postgres when configured, in-memory for dev.
	var (
		ledger    wallet.Ledger
		users     identity.Repository
		addresses address.Repository
		shipments shipment.Repository
	)
	if d.DB != nil {
		ledger = wallet.NewPostgresLedger(d.DB)
		users = identity.NewPostgresRepository(d.DB)
		addresses = address.NewPostgresRepository(d.DB)
		shipments = shipment.NewPostgresStore(d.DB)
	} else {
		ledger = wallet.NewInMemory()
		users = identity.NewMemoryRepository()
		addresses = address.NewMemoryRepository()
		shipments = shipment.NewMemoryStore(ledger)
	}

	gateway := paystack.NewClient(d.Cfg.PaystackBaseURL, d.Cfg.PaystackSecret, d.Cfg.GatewayTimeout)
	notifier := notification.NewLoggerNotifier(d.Logger)

	walletSvc := wallet.NewService(ledger, users, gateway, d.Logger)
	shipmentSvc := shipment.NewService(shipments, addresses, notifier, d.Logger)
	reconciler := webhook.NewReconciler(d.Cfg.PaystackSecret, users, ledger, notifier, d.Logger)

	walletHandler := wallet.NewHandler(walletSvc)
	shipmentHandler := shipment.NewHandler(shipmentSvc)
	webhookHandler := webhook.NewHandler(reconciler, d.Logger)

	RegisterHealthRoutes(app, d)
	app.Post("/paystack/webhook", webhookHandler.Receive)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	protected := api.Group("", middleware.BearerAuth(d.Cfg.JWTSecret))
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterWalletRoutes(protected, walletHandler, middleware.ResolveRateLimit(d.Cache, 10))
	RegisterShipmentRoutes(protected, shipmentHandler)

	return nil
}
