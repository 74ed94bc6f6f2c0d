// Package router wires the HTTP surface: the widget-facing chat and
// auth endpoints plus the dashboard's lead, email, and settings APIs.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vectorsoft/leadgate/internal/conversation"
	"github.com/vectorsoft/leadgate/internal/digest"
	httpmiddleware "github.com/vectorsoft/leadgate/internal/http/middleware"
	"github.com/vectorsoft/leadgate/internal/scoring"
	"github.com/vectorsoft/leadgate/internal/settings"
	"github.com/vectorsoft/leadgate/internal/widgetauth"
	"github.com/vectorsoft/leadgate/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	ChatHandler        *conversation.Handler
	LeadsHandler       *scoring.Handler
	EmailHandler       *digest.Handler
	SettingsHandler    *settings.Handler
	WidgetAuthHandler  *widgetauth.Handler
	WidgetSessions     *widgetauth.SessionStore
	EnforceWidgetAuth  bool
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Widget-facing endpoints
	if cfg.WidgetAuthHandler != nil {
		r.Post("/widget-auth", cfg.WidgetAuthHandler.Authorize)
	}
	if cfg.ChatHandler != nil {
		r.Group(func(chat chi.Router) {
			if cfg.EnforceWidgetAuth {
				chat.Use(widgetauth.RequireSession(cfg.WidgetSessions, cfg.Logger))
			}
			chat.Post("/chat", cfg.ChatHandler.Chat)
		})
	}

	// Dashboard endpoints
	if cfg.LeadsHandler != nil {
		r.Get("/leads", cfg.LeadsHandler.List)
	}
	if cfg.EmailHandler != nil {
		r.Post("/email", cfg.EmailHandler.Send)
		r.Get("/email", cfg.EmailHandler.Schedules)
		r.Patch("/email", cfg.EmailHandler.Update)
		r.Get("/email-history", cfg.EmailHandler.History)
	}
	if cfg.SettingsHandler != nil {
		r.Get("/settings", cfg.SettingsHandler.Get)
		r.Post("/settings", cfg.SettingsHandler.Save)
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
