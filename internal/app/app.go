// Package app provides the main application lifecycle management for the brand-studio service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonesrussell/brand-studio/internal/api"
	"github.com/jonesrussell/brand-studio/internal/audit"
	"github.com/jonesrussell/brand-studio/internal/config"
	"github.com/jonesrussell/brand-studio/internal/connectors"
	"github.com/jonesrussell/brand-studio/internal/discovery"
	"github.com/jonesrussell/brand-studio/internal/generator"
	"github.com/jonesrussell/brand-studio/internal/logger"
	"github.com/jonesrussell/brand-studio/internal/models"
	"github.com/jonesrussell/brand-studio/internal/store"
	"github.com/jonesrussell/brand-studio/internal/studio"
)

// App represents the brand-studio application with all its dependencies
type App struct {
	config     *config.Config
	logger     logger.Logger
	service    *studio.Service
	httpServer *http.Server
	version    string
}

// Options contains configuration for creating a new App
type Options struct {
	ConfigPath string
	Version    string
}

// New creates a new App instance with all dependencies initialized
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appLogger, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	appLogger = appLogger.With(
		logger.String("service", "brand-studio"),
		logger.String("version", opts.Version),
	)

	st, err := store.New(cfg.Storage.DataDir, appLogger)
	if err != nil {
		_ = appLogger.Sync()
		return nil, fmt.Errorf("open state store: %w", err)
	}

	disc := discovery.NewService(discovery.Config{
		Timeout:         cfg.Discovery.Timeout,
		MaxItemsPerFeed: cfg.Discovery.MaxItemsPerFeed,
	}, appLogger)

	var textGen generator.TextGenerator
	if cfg.LLM.Enabled {
		textGen = generator.NewLLMClient(generator.LLMConfig{
			Enabled:     true,
			BaseURL:     cfg.LLM.URL,
			Timeout:     cfg.LLM.Timeout,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		})
	}

	registry := connectors.NewRegistry(connectors.NewStubConnector())
	registry.Register(models.ChannelGitHub, connectors.NewGitHubConnector(cfg.Connectors.Timeout))
	registry.Register(models.ChannelDevto, connectors.NewDevtoConnector(cfg.Connectors.Timeout, cfg.Connectors.DevtoTags))

	mirror := audit.NewMirror(audit.MirrorConfig{
		Enabled:     cfg.AuditMirror.Enabled,
		BaseURL:     cfg.AuditMirror.URL,
		Timeout:     cfg.AuditMirror.Timeout,
		Source:      cfg.AuditMirror.Source,
		IngestToken: cfg.AuditMirror.IngestToken,
	}, appLogger)

	service, err := studio.New(studio.Deps{
		Store:      st,
		Logger:     appLogger,
		Discovery:  disc,
		Generator:  textGen,
		Connectors: registry,
		Mirror:     mirror,
	})
	if err != nil {
		_ = appLogger.Sync()
		return nil, fmt.Errorf("create studio service: %w", err)
	}

	router := api.NewRouter(service, cfg, appLogger)
	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &App{
		config:     cfg,
		logger:     appLogger,
		service:    service,
		httpServer: httpServer,
		version:    opts.Version,
	}, nil
}

// Run starts the HTTP server and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server",
			logger.String("address", a.config.Server.Address),
			logger.Bool("debug", a.config.Debug),
		)
		serverErr <- a.httpServer.ListenAndServe()
	}()

	return a.waitForShutdown(ctx, serverErr)
}

// waitForShutdown handles graceful shutdown
func (a *App) waitForShutdown(ctx context.Context, serverErr chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("Shutting down gracefully",
			logger.String("signal", sig.String()),
		)
	case <-ctx.Done():
		a.logger.Info("Shutting down gracefully", logger.String("reason", "context cancelled"))
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Server error", logger.Error(err))
			return err
		}
	}

	a.shutdownHTTPServer()
	a.logger.Info("Service stopped")
	return nil
}

// shutdownHTTPServer gracefully shuts down the HTTP server
func (a *App) shutdownHTTPServer() {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Server shutdown error", logger.Error(err))
	} else {
		a.logger.Info("HTTP server stopped")
	}
}

// Close cleans up resources
func (a *App) Close() error {
	return a.logger.Sync()
}

// Logger returns the application logger
func (a *App) Logger() logger.Logger {
	return a.logger
}
