// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/stash/internal/api"
	"github.com/starford/stash/internal/mcpserver"
	"github.com/starford/stash/internal/sse"
	"github.com/starford/stash/internal/stash"
	"github.com/starford/stash/internal/stashservice"
	"github.com/starford/stash/internal/storage"
	"github.com/starford/stash/internal/tagging"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// openService opens storage, loads the store and builds the service on top of it.
// The returned close function releases the storage backend.
func openService(ctx context.Context, cfg *Config, logger *slog.Logger, storeOpts ...stash.Option) (*stashservice.Service, func(), error) {
	provider, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	closeFn := func() {
		if err := provider.Close(); err != nil {
			logger.Error("storage close failed", slog.String("error", err.Error()))
		}
	}

	opts := append([]stash.Option{
		stash.WithLogger(logger),
		stash.WithStrictLocks(cfg.Stash.StrictLocks),
		stash.WithBcryptCost(cfg.Stash.BcryptCost),
	}, storeOpts...)
	store := stash.New(provider, opts...)
	store.Load()

	suggester, err := tagging.New(ctx, cfg.Tagging.Options())
	if err != nil {
		// Stash stays usable without suggestions; the endpoint reports 502.
		logger.Warn("tag suggester unavailable", slog.String("error", err.Error()))
		suggester = nil
	}

	return stashservice.New(store, suggester, logger), closeFn, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stdout, cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("storage_path", cfg.Storage.Path),
		slog.Bool("strict_locks", cfg.Stash.StrictLocks),
		slog.String("tagging_provider", cfg.Tagging.Provider),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(cfg.SSE.TreeThrottle)
	defer broker.Close()

	svc, closeStorage, err := openService(ctx, cfg, logger, stash.WithChangeFunc(broker.NotifyChange))
	if err != nil {
		return err
	}
	defer closeStorage()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		_, _ = fmt.Fprintf(w, `{"status":"ok","folders":%d,"files":%d,"sse_clients":%d}`,
			len(svc.Store().Folders()), len(svc.Store().Files()), broker.ClientCount())
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	hbCtx, stopHeartbeat := context.WithCancel(gCtx)
	defer stopHeartbeat()

	g.Go(func() error {
		broker.Heartbeat(hbCtx, cfg.SSE.Heartbeat)
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		// Close SSE streams first so Shutdown does not wait on them.
		stopHeartbeat()
		broker.Close()

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

// RunMCP serves the stash over MCP on stdin/stdout. Logs go to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, app.config.App.LogLevel)

	svc, closeStorage, err := openService(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	logger.Info("MCP server starting", slog.String("version", app.version))
	return mcpserver.New(svc, app.version).ServeStdio()
}

// PrintTree writes the folder hierarchy to the configured output.
func PrintTree(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, slog.LevelWarn)

	svc, closeStorage, err := openService(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	return stashservice.RenderTree(app.out, svc.Tree())
}
