package widgetauth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vectorsoft/leadgate/pkg/logging"
)

// Handler serves POST /widget-auth.
type Handler struct {
	registry DomainRegistry
	issuer   *TokenIssuer
	sessions *SessionStore
	devMode  bool
	logger   *logging.Logger
}

// NewHandler creates the widget auth handler. A nil session store
// disables session tracking; tokens are still issued.
func NewHandler(registry DomainRegistry, issuer *TokenIssuer, sessions *SessionStore, devMode bool, logger *logging.Logger) *Handler {
	if registry == nil {
		panic("widgetauth: domain registry required")
	}
	if issuer == nil {
		issuer = NewTokenIssuer("", 0)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		registry: registry,
		issuer:   issuer,
		sessions: sessions,
		devMode:  devMode,
		logger:   logger,
	}
}

type authRequest struct {
	Domain string `json:"domain"`
}

type authResponse struct {
	Success      bool         `json:"success"`
	SessionToken string       `json:"sessionToken"`
	Config       WidgetConfig `json:"config"`
}

// Authorize handles POST /widget-auth.
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	if origin == "" || req.Domain == "" {
		h.logger.Info("widget auth rejected", "reason", "missing parameters", "origin", origin, "domain", req.Domain)
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}

	domain := NormalizeDomain(req.Domain)
	h.logger.Info("checking widget domain", "domain", domain, "origin", origin)

	if h.devMode && isLoopback(domain) {
		token := h.issuer.IssueDev()
		writeJSON(w, authResponse{
			Success:      true,
			SessionToken: token,
			Config:       WidgetConfig{Theme: defaultTheme, Position: defaultPosition},
		})
		return
	}

	site, err := h.registry.FindActiveDomain(r.Context(), domain)
	if errors.Is(err, ErrDomainNotAuthorized) {
		h.logger.Info("widget auth rejected", "reason", "domain not found", "domain", domain)
		writeError(w, http.StatusUnauthorized, "Domain not authorized")
		return
	}
	if err != nil {
		h.logger.Error("widget auth lookup failed", "domain", domain, "error", err)
		writeError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	token, err := h.issuer.Issue(domain)
	if err != nil {
		h.logger.Error("widget token issuance failed", "domain", domain, "error", err)
		writeError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}
	if err := h.sessions.Save(r.Context(), token, domain); err != nil {
		// Session tracking is best-effort; the token still works
		// where verification is disabled.
		h.logger.Error("session save failed", "domain", domain, "error", err)
	}

	writeJSON(w, authResponse{
		Success:      true,
		SessionToken: token,
		Config:       site.Config(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
