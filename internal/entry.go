// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/cardbeam/cardbeam/internal/configwatch"
	"github.com/cardbeam/cardbeam/internal/events"
	"github.com/cardbeam/cardbeam/internal/notestore"
	"github.com/cardbeam/cardbeam/internal/pusher"
	"github.com/cardbeam/cardbeam/internal/scheduler"
	"github.com/cardbeam/cardbeam/internal/server"
	pkgconfig "github.com/cardbeam/cardbeam/pkg/config"
)

// webhookTimeout bounds a single outbound push request.
const webhookTimeout = 30 * time.Second

// Run starts the daemon with the given options: the scheduler loop, the
// local HTTP API, and the config file watcher, all under one errgroup.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.Duration("refresh_interval", cfg.RefreshInterval()),
		slog.Int("plugins", len(cfg.Plugins)),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Open the note store.
	store, err := notestore.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open note store: %w", err)
	}
	defer store.Close()

	// Events broker for the SSE stream.
	broker := events.NewBroker()
	defer broker.Close()

	// Scheduler over the fresh-per-cycle config loader.
	loader := SnapshotLoader(app.configPath, cfg)
	sched := scheduler.New(loader, store, pusher.New(webhookTimeout), broker, logger)

	// Build API router.
	apiRouter := server.NewRouter(sched, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start the polling loop.
	g.Go(func() error {
		return sched.Run(gCtx)
	})

	// Watch the config file so edits push without waiting for the tick.
	if app.configPath != "" {
		g.Go(func() error {
			if err := configwatch.Watch(gCtx, app.configPath, logger, sched.Trigger); err != nil {
				logger.Warn("config watcher unavailable", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// SnapshotLoader returns a scheduler.Loader that re-reads the config file
// on every cycle, so edits take effect without a restart. With an empty
// path the initial config is frozen and reused.
func SnapshotLoader(configPath string, initial *Config) scheduler.Loader {
	if configPath == "" {
		snap := Snapshot(initial)
		return func() (*scheduler.Snapshot, error) {
			return snap, nil
		}
	}
	return func() (*scheduler.Snapshot, error) {
		cfg := NewDefaultConfig()
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, err
		}
		return Snapshot(cfg), nil
	}
}

// Snapshot converts a validated Config into the immutable view a cycle
// works from.
func Snapshot(cfg *Config) *scheduler.Snapshot {
	snap := &scheduler.Snapshot{
		Interval: cfg.RefreshInterval(),
		Plugins:  make([]scheduler.Plugin, len(cfg.Plugins)),
	}
	for i, pl := range cfg.Plugins {
		snap.Plugins[i] = scheduler.Plugin{
			Enabled:       pl.Enabled,
			SearchQuery:   pl.SearchQuery,
			VisibleFields: append([]string(nil), pl.VisibleFields...),
			Webhook:       pl.Webhook,
		}
	}
	return snap
}

// PushOnce runs a single push cycle outside the daemon (the `push`
// command). It returns the cycle report; plugin failures are recorded in
// the report, not returned as errors.
func PushOnce(ctx context.Context, cfg *Config) (*scheduler.Report, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	store, err := notestore.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open note store: %w", err)
	}
	defer store.Close()

	sched := scheduler.New(SnapshotLoader("", cfg), store, pusher.New(webhookTimeout), nil, logger)
	sched.RunOnce(ctx)
	report := sched.LastReport()
	if report == nil {
		return nil, fmt.Errorf("cycle did not run")
	}
	return report, nil
}
