package routes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/placemaking/walletpass/internal/auth"
	"github.com/placemaking/walletpass/internal/config"
	"github.com/placemaking/walletpass/internal/googlewallet"
	"github.com/placemaking/walletpass/internal/metrics"
	"github.com/placemaking/walletpass/internal/middleware"
	"github.com/placemaking/walletpass/internal/notification"
	"github.com/placemaking/walletpass/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	// HTTPClient overrides the outbound client for Google endpoints.
	HTTPClient *http.Client
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}
	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	// Health and metrics
	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	walletSvc, err := newWalletService(d)
	if err != nil {
		return err
	}
	walletHandler := wallet.NewHandler(walletSvc, d.Logger)

	// Versioned utility routes
	v1 := app.Group("/api/v1")
	v1.Get("/ping", func(c *fiber.Ctx) error {
		reqID := middleware.RequestIDFrom(c)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	api := app.Group("/api")
	RegisterWalletRoutes(api, walletHandler,
		middleware.IssueRateLimit(d.Cache, d.Cfg.IssueRateLimit, d.Logger),
		middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger),
	)

	return nil
}

// newWalletService assembles the issuance workflow. Missing credentials do not
// stop the server; add-pass reports them per request instead.
func newWalletService(d Deps) (*wallet.Service, error) {
	wcfg := d.Cfg.Wallet.WithDefaults()
	if err := wcfg.Validate(); err != nil {
		d.Logger.Warn("google wallet settings incomplete", slog.Any("error", err))
	}

	httpClient := d.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: wcfg.UpstreamTimeout}
	}

	var repo wallet.Repository
	if d.DB != nil {
		pg := wallet.NewPostgresRepository(d.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure wallet schema: %w", err)
		}
		repo = pg
	} else {
		repo = wallet.NewMemoryRepository()
	}

	deps := wallet.Deps{
		Config:   wcfg,
		Provider: googlewallet.NewClient(wcfg.APIBaseURL, httpClient, d.Logger),
		Repo:     repo,
		Notifier: notification.NewLoggerNotifier(d.Logger),
		Logger:   d.Logger,
	}

	signer, err := auth.NewSigner(wcfg.ServiceAccountEmail, wcfg.PrivateKey)
	if err != nil {
		if !errors.Is(err, config.ErrNotConfigured) {
			// A present but unreadable key is an operator error worth failing on.
			return nil, fmt.Errorf("load service account key: %w", err)
		}
		deps.SetupErr = err
		return wallet.NewService(deps), nil
	}
	issuer, err := auth.NewTokenIssuer(wcfg, httpClient)
	if err != nil {
		return nil, err
	}

	var store auth.Store
	if d.Cache != nil {
		store = auth.NewRedisStore(d.Cache, wcfg.ServiceAccountEmail)
	}
	tokens := auth.NewTokenCache(wcfg.RefreshBuffer, store, d.Logger)

	deps.Tokens = tokens.Bind(issuer)
	deps.Minter = wallet.NewSaveTokenMinter(signer, wcfg)
	return wallet.NewService(deps), nil
}
