// Package main is the entry point for the service. It wires all dependencies
// using samber/do v2, starts the HTTP server, and handles graceful shutdown
// on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do/v2"

	adapthttp "taskledger/internal/adapters/http"
	"taskledger/internal/adapters/http/handlers"
	"taskledger/internal/adapters/http/middleware"

	"taskledger/internal/adapters/clients/directory"
	"taskledger/internal/adapters/notify"
	"taskledger/internal/adapters/store/sqlite"
	"taskledger/internal/app"
	"taskledger/internal/platform/config"
	"taskledger/internal/platform/health"
	"taskledger/internal/platform/httpclient"
	"taskledger/internal/platform/logging"
	"taskledger/internal/platform/telemetry"
	"taskledger/internal/ports"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	serverShutdownTimeout = 15 * time.Second
	otelShutdownTimeout   = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	profile := os.Getenv("APP_PROFILE")
	if profile == "" {
		return errors.New("APP_PROFILE environment variable is required (e.g. local, dev, qa, prod)")
	}

	// Bootstrap: config, logger, telemetry, database.
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx := context.Background()
	otel, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := sqlite.Migrate(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	// DI container.
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, db)
	do.ProvideValue(injector, otel.metrics)

	registerDependencies(injector, cfg, logger)

	// Resolve the server (eagerly wires the full graph).
	server, err := do.Invoke[*adapthttp.Server](injector)
	if err != nil {
		return fmt.Errorf("resolving server: %w", err)
	}

	// Register health checkers after the graph is wired.
	registry := do.MustInvoke[ports.HealthRegistry](injector)
	registry.Register(sqlite.NewHealthChecker(db))
	registry.Register(do.MustInvoke[*httpclient.Client](injector))

	// Start server in background.
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for shutdown signal or server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Graceful shutdown: drain HTTP requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	// Wait for Start() goroutine to return.
	<-serverErr

	// Flush telemetry.
	otelCtx, otelCancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
	defer otelCancel()

	if err := otel.Shutdown(otelCtx); err != nil {
		logger.Error("telemetry shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}

// otelProviders bundles OpenTelemetry provider lifecycle. All fields are nil
// when telemetry is disabled.
type otelProviders struct {
	tracer  *sdktrace.TracerProvider
	meter   *sdkmetric.MeterProvider
	metrics *telemetry.Metrics
}

// Shutdown flushes both providers. Nil-safe.
func (o *otelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if o.tracer != nil {
		if err := o.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if o.meter != nil {
		if err := o.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

func initTelemetry(ctx context.Context, cfg *config.Config) (*otelProviders, error) {
	if !cfg.Telemetry.Enabled {
		return &otelProviders{}, nil
	}

	tp, err := telemetry.InitTracer(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	mp, err := telemetry.InitMeter(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("init meter: %w", err)
	}

	metrics, err := telemetry.NewMetrics(mp, cfg.Telemetry.ServiceName)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	return &otelProviders{
		tracer:  tp,
		meter:   mp,
		metrics: metrics,
	}, nil
}

func registerDependencies(injector *do.RootScope, cfg *config.Config, logger *slog.Logger) {
	// Storage.
	do.Provide(injector, func(i do.Injector) (ports.ProjectStore, error) {
		return sqlite.NewProjectStore(do.MustInvoke[*sql.DB](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.TaskStore, error) {
		return sqlite.NewTaskStore(do.MustInvoke[*sql.DB](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.AuditStore, error) {
		return sqlite.NewAuditStore(do.MustInvoke[*sql.DB](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.TxManager, error) {
		return sqlite.NewTxManager(do.MustInvoke[*sql.DB](i)), nil
	})

	// Outbound clients.
	do.Provide(injector, func(i do.Injector) (*httpclient.Client, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return httpclient.New(&cfg.Directory.Client, "user-directory", metrics, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.UserDirectory, error) {
		client := directory.NewClient(do.MustInvoke[*httpclient.Client](i))
		cache := sqlite.NewUserCache(do.MustInvoke[*sql.DB](i), cfg.Directory.CacheTTL, nil)
		return directory.NewCachedDirectory(client, cache, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.Notifier, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		if !cfg.Notifier.Enabled {
			return notify.NewInstrumented(notify.NewLogNotifier(logger), metrics), nil
		}
		client := httpclient.New(&cfg.Notifier.Client, "mutation-webhook", metrics, logger)
		return notify.NewInstrumented(notify.NewWebhookNotifier(client), metrics), nil
	})

	// Application services.
	do.Provide(injector, func(i do.Injector) (ports.ProjectService, error) {
		return app.NewProjectService(
			do.MustInvoke[ports.ProjectStore](i),
			do.MustInvoke[ports.AuditStore](i),
			do.MustInvoke[ports.UserDirectory](i),
			do.MustInvoke[ports.TxManager](i),
			do.MustInvoke[ports.Notifier](i),
			logger,
			nil,
		), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.TaskService, error) {
		return app.NewTaskService(
			do.MustInvoke[ports.TaskStore](i),
			do.MustInvoke[ports.ProjectStore](i),
			do.MustInvoke[ports.AuditStore](i),
			do.MustInvoke[ports.UserDirectory](i),
			do.MustInvoke[ports.TxManager](i),
			do.MustInvoke[ports.Notifier](i),
			logger,
			nil,
		), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.HistoryService, error) {
		return app.NewHistoryService(
			do.MustInvoke[ports.ProjectStore](i),
			do.MustInvoke[ports.TaskStore](i),
			do.MustInvoke[ports.AuditStore](i),
			do.MustInvoke[ports.UserDirectory](i),
			logger,
		), nil
	})

	do.Provide(injector, func(_ do.Injector) (ports.HealthRegistry, error) {
		return health.New(), nil
	})

	// HTTP layer.
	do.Provide(injector, func(i do.Injector) (*handlers.ProjectHandler, error) {
		svc := do.MustInvoke[ports.ProjectService](i)
		history := do.MustInvoke[ports.HistoryService](i)
		return handlers.NewProjectHandler(svc, history), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.TaskHandler, error) {
		svc := do.MustInvoke[ports.TaskService](i)
		history := do.MustInvoke[ports.HistoryService](i)
		return handlers.NewTaskHandler(svc, history), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.HealthHandler, error) {
		registry := do.MustInvoke[ports.HealthRegistry](i)
		return handlers.NewHealthHandler(registry), nil
	})

	do.Provide(injector, func(i do.Injector) (nethttp.Handler, error) {
		projH := do.MustInvoke[*handlers.ProjectHandler](i)
		taskH := do.MustInvoke[*handlers.TaskHandler](i)
		healthH := do.MustInvoke[*handlers.HealthHandler](i)
		metrics := do.MustInvoke[*telemetry.Metrics](i)

		return adapthttp.NewRouter(projH, taskH, healthH,
			middleware.Auth(cfg.Auth.Secret, logger),
			middleware.Recovery(logger),
			middleware.RequestID(),
			middleware.OpenTelemetry(metrics),
			middleware.Logging(logger),
			middleware.Timeout(cfg.Server.WriteTimeout),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*adapthttp.Server, error) {
		handler := do.MustInvoke[nethttp.Handler](i)
		return adapthttp.NewServer(cfg.Server, handler, logger), nil
	})
}
