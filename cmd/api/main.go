// Package main is the entry point for the wedding transport API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkordes/wedding-transport/internal/config"
	"github.com/pkordes/wedding-transport/internal/handler"
	"github.com/pkordes/wedding-transport/internal/metrics"
	"github.com/pkordes/wedding-transport/internal/middleware"
	"github.com/pkordes/wedding-transport/internal/notify"
	"github.com/pkordes/wedding-transport/internal/obs"
	"github.com/pkordes/wedding-transport/internal/repo"
	"github.com/pkordes/wedding-transport/internal/service"
	"github.com/pkordes/wedding-transport/migrations"
	"github.com/pkordes/wedding-transport/spec"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Tracing ----------------------------------------------------------
	shutdownTracer, err := obs.InitTracer(ctx, cfg.ServiceName, version, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		slog.Error("failed to initialise tracing", "error", err)
		os.Exit(1)
	}

	// --- Database ---------------------------------------------------------
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if cfg.AutoMigrate {
		if err := migrate(ctx, pool); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	// --- Notifications ----------------------------------------------------
	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.NotifyAMQPURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.NotifyAMQPURL, cfg.NotifyExchange)
		if err != nil {
			slog.Error("failed to connect to message broker", "error", err)
			os.Exit(1)
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
		slog.Info("notifications published to broker", "exchange", cfg.NotifyExchange)
	}

	// --- Services ---------------------------------------------------------
	m := metrics.New(prometheus.DefaultRegisterer, "wedding_transport")
	repos := repo.NewRepos(pool)
	tx := repo.NewTransactor(pool)

	server := handler.NewServer(
		service.NewTransportService(tx, repos, logger, m),
		service.NewFleetService(tx, repos),
		service.NewCoordinationService(repos, logger, m),
		service.NewNotificationService(repos, notifier, logger, m, cfg.NotifyConcurrency),
		logger,
	)

	// --- Router -----------------------------------------------------------
	// Middleware order: RequestID, RealIP, CORS, SlogLogger, Metrics,
	// MaxBodySize, Recoverer. CORS runs before the logger so preflights are
	// answered without touching handlers.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(middleware.NewMetricsHandler(m))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(chimiddleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(spec.OpenAPI)
	})
	server.Register(r)

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		slog.Error("tracer shutdown error", "error", err)
	}
	slog.Info("server stopped")
}

// migrate applies pending migrations through a database/sql handle that
// shares the pool's configuration.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) { _ = db.Close() }(db)

	provider, err := migrations.NewProvider(db)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "count", len(results))
	return nil
}
