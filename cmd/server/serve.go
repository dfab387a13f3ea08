package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/relvanta/relvanta-api/internal/config"
	"github.com/relvanta/relvanta-api/internal/database"
	"github.com/relvanta/relvanta-api/internal/handlers"
	"github.com/relvanta/relvanta-api/internal/logging"
	"github.com/relvanta/relvanta-api/internal/metrics"
	"github.com/relvanta/relvanta-api/internal/middleware"
	"github.com/relvanta/relvanta-api/internal/repository"
	"github.com/relvanta/relvanta-api/internal/routes"
	"github.com/relvanta/relvanta-api/internal/services"
	"github.com/relvanta/relvanta-api/internal/telemetry"
)

const (
	storePostgres = "postgres"
	storeMemory   = "memory"
)

func serveCmd() *cobra.Command {
	var storeKind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), storeKind)
		},
	}

	cmd.Flags().StringVar(&storeKind, "store", storePostgres, "backing store: postgres or memory")
	return cmd
}

func serve(ctx context.Context, storeKind string) error {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	var store repository.Store
	switch storeKind {
	case storePostgres:
		if err := cfg.Validate(); err != nil {
			return err
		}
		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := database.Close(db); err != nil {
				slog.Error("database close error", "error", err)
			}
		}()
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		gormStore := repository.NewGormStore(db)
		store = gormStore

		// PostgreSQL log handler (ERROR+ async batch)
		pgLogHandler := logging.NewPGHandler(gormStore)
		defer pgLogHandler.Stop()
		slog.SetDefault(slog.New(logging.NewMultiHandler(
			logging.NewJSONHandler(os.Stdout),
			pgLogHandler,
		)))

		cleanupDone := make(chan struct{})
		defer close(cleanupDone)
		logging.StartCleanup(gormStore, cfg.LogRetentionDays, cleanupDone)
	case storeMemory:
		slog.Warn("using in-memory store, data is lost on exit")
		store = repository.NewMemoryStore()
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", storeKind, storePostgres, storeMemory)
	}

	shutdownTracing, err := telemetry.InitProvider(ctx, telemetry.Config{
		ServiceName: "relvanta-api",
		Environment: cfg.AppEnv,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRate:  cfg.TraceSampleRate,
	})
	if err != nil {
		return fmt.Errorf("tracing init failed: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
	}

	verifier := services.NewFirebaseVerifier(cfg)
	verifier.Init()
	defer verifier.Close()

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	app := newApp(cfg, store, verifier, m)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", storeKind)
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

// newApp assembles the Fiber application over an already opened store.
func newApp(cfg *config.Config, store repository.Store, verifier services.IdentityVerifier, m *metrics.Metrics) *fiber.App {
	// Services
	authService := services.NewAuthService(store, store, verifier, m, cfg)
	resolver := services.NewSessionResolver(store, store, m)
	contentService := services.NewContentService(store)
	accessService := services.NewAccessService(store)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.Cookie)
	contentHandler := handlers.NewContentHandler(contentService)
	accessHandler := handlers.NewAccessHandler(accessService)
	healthHandler := handlers.NewHealthHandler(store)

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
		// Handlers and stores keep request-derived strings past the request.
		Immutable:    true,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(m.Middleware())
	if len(cfg.CORSOrigins) > 0 {
		app.Use(middleware.CORS(cfg))
	}
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, resolver, m, authHandler, contentHandler, accessHandler, healthHandler)
	return app
}
