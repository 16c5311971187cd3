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

	"golang.org/x/sync/errgroup"

	"github.com/starford/mannaz/internal/credstore"
	"github.com/starford/mannaz/internal/feed"
	"github.com/starford/mannaz/internal/messaging"
	"github.com/starford/mannaz/internal/remote"
	"github.com/starford/mannaz/internal/session"
	"github.com/starford/mannaz/internal/storage"
	"github.com/starford/mannaz/internal/stubserver"
)

// App is the assembled client: the remote client plus the three state stores,
// all sharing one durable credential store.
type App struct {
	Config    *Config
	Logger    *slog.Logger
	Client    *remote.Client
	Session   *session.Store
	Feed      *feed.Store
	Messaging *messaging.Store

	creds *credstore.Store
}

// NewApp wires the client together and restores any persisted session. The
// caller owns the returned App and must Close it.
func NewApp(ctx context.Context, opts ...Option) (*App, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Logs go to stderr: stdout belongs to command output, and in MCP mode
	// to the stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	creds, err := credstore.Open(cfg.Session.Path)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	client := remote.New(cfg.API.BaseURL, creds)
	sess := session.New(client, creds, logger)
	sess.Restore(ctx)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Client:    client,
		Session:   sess,
		Feed:      feed.New(client, logger),
		Messaging: messaging.New(client, logger),
		creds:     creds,
	}, nil
}

// Close releases the durable credential store.
func (a *App) Close() error {
	return a.creds.Close()
}

// RunStub starts the local stub backend and blocks until shutdown.
func RunStub(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("address", cfg.Stub.Address()),
		slog.String("fixtures", cfg.Stub.Fixtures),
		slog.String("uploads_dir", cfg.Stub.UploadsDir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Stub.UploadsDir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	uploads, err := storage.NewFS(cfg.Stub.UploadsDir)
	if err != nil {
		return fmt.Errorf("init uploads storage: %w", err)
	}

	srv := stubserver.New(cfg.Stub.JWTSecret, uploads, logger)
	if cfg.Stub.Fixtures != "" {
		fx, err := stubserver.LoadFixtures(cfg.Stub.Fixtures)
		if err != nil {
			return fmt.Errorf("load fixtures: %w", err)
		}
		srv.Seed(fx)
		logger.Info("Fixtures seeded",
			slog.Int("users", len(fx.Users)),
			slog.Int("posts", len(fx.Posts)),
			slog.Int("messages", len(fx.Messages)))
	}

	httpServer := &http.Server{
		Addr:    cfg.Stub.Address(),
		Handler: srv.Router(),
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Stub.Fixtures != "" {
		g.Go(func() error {
			return stubserver.WatchFixtures(gCtx, srv, cfg.Stub.Fixtures, logger)
		})
	}

	g.Go(func() error {
		logger.Info("Starting stub HTTP server", slog.String("address", cfg.Stub.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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
