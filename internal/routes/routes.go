package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/egwallet/egwallet/internal/account"
	"github.com/egwallet/egwallet/internal/config"
	"github.com/egwallet/egwallet/internal/identity"
	"github.com/egwallet/egwallet/internal/journal"
	"github.com/egwallet/egwallet/internal/ledger"
	"github.com/egwallet/egwallet/internal/middleware"
	"github.com/egwallet/egwallet/internal/notification"
	"github.com/egwallet/egwallet/internal/policy"
	"github.com/egwallet/egwallet/internal/rates"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Stores: Postgres when available, in-memory otherwise (dev only).
	var accountStore account.Store
	var jrnl journal.Journal
	if d.DB != nil {
		accountStore = account.NewPostgresStore(d.DB)
		jrnl = journal.NewPostgresJournal(d.DB)
	} else {
		accountStore = account.NewMemoryStore()
		jrnl = journal.NewMemory()
	}
	var credRepo identity.Repository
	if d.DB != nil {
		credRepo = identity.NewPostgresRepository(d.DB)
	} else {
		credRepo = identity.NewMemoryRepository()
	}

	// Services and handlers
	validate := validator.New()
	accountSvc := account.NewService(accountStore)
	gate := policy.NewGate(d.Cfg.BalanceCap)
	notifier := notification.NewLoggerNotifier(d.Logger)
	engine := ledger.NewEngine(accountStore, jrnl, gate, notifier, d.Logger)
	identitySvc := identity.NewService(credRepo, accountSvc)
	ratesSvc := rates.NewService(rates.NewHTTPProvider(d.Cfg.RatesURL), d.Cache, d.Cfg.RatesTTL, d.Logger)

	accountHandler := account.NewHandler(accountSvc, validate)
	transferHandler := ledger.NewHandler(engine, validate)
	identityHandler := identity.NewHandler(identitySvc, validate)
	ratesHandler := rates.NewHandler(ratesSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	signinLimiter := middleware.SigninRateLimit(d.Cache, 5)
	RegisterIdentityRoutes(api, identityHandler, signinLimiter)
	RegisterAccountRoutes(api, accountHandler)
	RegisterTransferRoutes(api, transferHandler)
	RegisterRatesRoutes(api, ratesHandler)

	return nil
}
