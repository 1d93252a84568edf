package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/notifyd/notifyd/internal/auth"
	"github.com/notifyd/notifyd/internal/config"
	"github.com/notifyd/notifyd/internal/middleware"
	"github.com/notifyd/notifyd/internal/notify"
)

// NewRouter creates and configures the API router
func NewRouter(cfg *config.Config, authService *auth.Service, logger *slog.Logger, registry *notify.Registry) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	// Initialize handlers
	healthHandler := NewHealthHandler(registry)
	channelHandler := NewChannelHandler(registry, cfg.Notify.GetMaxWait(), logger)

	// Public routes (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoint
		if cfg.Auth.Enabled {
			authHandler := NewAuthHandler(authService)
			r.Post("/auth/login", authHandler.Login)
		}

		// Channel routes (require JWT when auth is enabled)
		r.Group(func(r chi.Router) {
			if cfg.Auth.Enabled {
				r.Use(middleware.JWTAuth(authService))
			}

			r.Route("/channels", func(r chi.Router) {
				r.Get("/", channelHandler.List)
				r.Get("/{index}", channelHandler.Get)
				r.Post("/{index}/signal", channelHandler.Signal)
				r.Post("/{index}/wait", channelHandler.Wait)
			})
		})
	})

	return r
}
