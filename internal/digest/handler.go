package digest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vectorsoft/leadgate/internal/conversation"
	"github.com/vectorsoft/leadgate/internal/leads"
	"github.com/vectorsoft/leadgate/pkg/logging"
)

// Handler serves the email scheduling endpoints.
type Handler struct {
	schedules ScheduleStore
	history   HistoryStore
	repo      leads.Repository
	turns     conversation.TurnStore
	service   *Service
	logger    *logging.Logger
}

// NewHandler creates the email endpoints handler.
func NewHandler(schedules ScheduleStore, history HistoryStore, repo leads.Repository, turns conversation.TurnStore, service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		schedules: schedules,
		history:   history,
		repo:      repo,
		turns:     turns,
		service:   service,
		logger:    logger,
	}
}

type sendRequest struct {
	Email        string `json:"email"`
	ScheduleTime string `json:"scheduleTime"`
	Frequency    string `json:"frequency"`
}

// Send handles POST /email: upsert a schedule when a time is given,
// otherwise deliver the digest immediately.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	lead, err := h.repo.FindByContact(r.Context(), leads.NormalizeEmail(req.Email), "")
	if errors.Is(err, leads.ErrLeadNotFound) {
		writeError(w, http.StatusNotFound, "Lead not found")
		return
	}
	if err != nil {
		h.logger.Error("lead lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process email request")
		return
	}

	if req.ScheduleTime != "" {
		frequency := req.Frequency
		if frequency == "" {
			frequency = FrequencyDaily
		}
		sched, err := h.schedules.UpsertForLead(r.Context(), lead.ID, req.ScheduleTime, frequency)
		if err != nil {
			h.logger.Error("schedule upsert failed", "lead_id", lead.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to save schedule")
			return
		}
		writeJSON(w, map[string]any{
			"message":  fmt.Sprintf("Email scheduled for %s %s", req.ScheduleTime, frequency),
			"schedule": sched,
		})
		return
	}

	turns, err := h.turns.ListByLead(r.Context(), lead.ID)
	if err != nil {
		h.logger.Error("conversation lookup failed", "lead_id", lead.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to send email")
		return
	}
	if err := h.service.SendDigest(r.Context(), lead.ID, lead.Email, lead.Name, turns); err != nil {
		h.logger.Error("immediate digest send failed", "lead_id", lead.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to send email")
		return
	}
	writeJSON(w, map[string]string{"message": "Email sent successfully!"})
}

// Schedules handles GET /email?leadId=.
func (h *Handler) Schedules(w http.ResponseWriter, r *http.Request) {
	leadID := r.URL.Query().Get("leadId")
	if leadID == "" {
		writeError(w, http.StatusBadRequest, "Lead ID is required")
		return
	}

	scheds, err := h.schedules.ListByLead(r.Context(), leadID)
	if err != nil {
		h.logger.Error("schedule listing failed", "lead_id", leadID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch schedules")
		return
	}
	if scheds == nil {
		scheds = []Schedule{}
	}
	writeJSON(w, scheds)
}

type updateRequest struct {
	ScheduleID string `json:"scheduleId"`
	Enabled    *bool  `json:"enabled"`
	Time       string `json:"time"`
	Frequency  string `json:"frequency"`
}

// Update handles PATCH /email: partial schedule update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ScheduleID == "" {
		writeError(w, http.StatusBadRequest, "Schedule ID is required")
		return
	}

	sched, err := h.schedules.UpdateByID(r.Context(), req.ScheduleID, ScheduleUpdate{
		Enabled:   req.Enabled,
		Time:      req.Time,
		Frequency: req.Frequency,
	})
	if errors.Is(err, ErrScheduleNotFound) {
		writeError(w, http.StatusNotFound, "Schedule not found")
		return
	}
	if err != nil {
		h.logger.Error("schedule update failed", "schedule_id", req.ScheduleID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update schedule")
		return
	}
	writeJSON(w, sched)
}

// History handles GET /email-history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.history.List(r.Context())
	if err != nil {
		h.logger.Error("history listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch email history")
		return
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	writeJSON(w, entries)
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
