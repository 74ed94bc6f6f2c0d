package settings

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vectorsoft/leadgate/pkg/logging"
)

// Storage is the store surface the handler needs.
type Storage interface {
	Current(ctx context.Context) (*CompanySettings, error)
	Save(ctx context.Context, cs *CompanySettings) error
}

// Handler serves GET/POST /settings.
type Handler struct {
	store  Storage
	logger *logging.Logger
}

// NewHandler creates a settings handler.
func NewHandler(store Storage, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Get handles GET /settings. Returns null when no settings exist yet.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cs, err := h.store.Current(r.Context())
	if err != nil && err != ErrNotFound {
		h.logger.Error("failed to fetch settings", "error", err)
		http.Error(w, "Failed to fetch settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cs)
}

// SaveRequest is the POST /settings body. List fields arrive as
// newline-delimited text and are split into ordered lists.
type SaveRequest struct {
	CompanyName    string `json:"companyName"`
	Description    string `json:"description"`
	Services       string `json:"services"`
	CaseStudies    string `json:"caseStudies"`
	SpecialOffers  string `json:"specialOffers"`
	PromptTemplate string `json:"promptTemplate"`
}

// Save handles POST /settings.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cs := &CompanySettings{
		CompanyName:    req.CompanyName,
		Description:    req.Description,
		Services:       SplitLines(req.Services),
		CaseStudies:    SplitLines(req.CaseStudies),
		SpecialOffers:  SplitLines(req.SpecialOffers),
		PromptTemplate: req.PromptTemplate,
	}

	// Persistence is the entire point of this call, so failures are fatal.
	if err := h.store.Save(r.Context(), cs); err != nil {
		h.logger.Error("failed to save settings", "error", err)
		http.Error(w, "Failed to save settings", http.StatusInternalServerError)
		return
	}

	h.logger.Info("settings saved", "company", cs.CompanyName)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
