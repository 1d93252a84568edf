package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/notifyd/notifyd/internal/api"
	"github.com/notifyd/notifyd/internal/auth"
	"github.com/notifyd/notifyd/internal/config"
	"github.com/notifyd/notifyd/internal/notify"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logger
	logger := initLogger(cfg.Logging)
	logger.Info("Starting notifyd",
		"version", "1.0.0",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"channels", cfg.Notify.Channels,
	)

	// Create context for graceful shutdown; wait requests inherit it via
	// the server's base context, so cancelling it unblocks them.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Construct the channel registry
	registry, err := notify.NewRegistry(cfg.Notify.Channels,
		notify.WithInitHook(func(index int, ch *notify.Channel) error {
			logger.Debug("channel constructed", "index", index)
			return nil
		}),
		notify.WithTeardownHook(func(index int, ch *notify.Channel) {
			logger.Debug("channel destroyed",
				"index", index,
				"generation", ch.Generation(),
				"waiters", ch.Waiters(),
			)
		}),
	)
	if err != nil {
		var cerr *notify.ConstructionError
		if errors.As(err, &cerr) {
			log.Fatalf("Channel construction failed at index %d (earlier channels rolled back): %v", cerr.Index, cerr.Err)
		}
		log.Fatalf("Registry construction failed: %v", err)
	}

	// Initialize authentication service
	var authService *auth.Service
	if cfg.Auth.Enabled {
		authService, err = auth.NewService(
			cfg.Auth.JWTSecret,
			cfg.Auth.AdminUsername,
			cfg.Auth.AdminPassword,
			cfg.Auth.GetJWTExpiry(),
		)
		if err != nil {
			log.Fatalf("Failed to initialize auth service: %v", err)
		}
	}

	// Create API router
	router := api.NewRouter(cfg, authService, logger, registry)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.GetReadTimeout(),
		WriteTimeout: cfg.Server.GetWriteTimeout(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Cancel the base context and destroy the registry so every blocked
	// wait request resolves with the cancelled outcome.
	cancel()
	registry.Destroy()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped gracefully")
}

func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler

	// Set log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Set format
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
