package conversation

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vectorsoft/leadgate/internal/leads"
	"github.com/vectorsoft/leadgate/pkg/logging"
)

// Handler serves POST /chat.
type Handler struct {
	engine *Engine
	logger *logging.Logger
}

// NewHandler creates a chat handler.
func NewHandler(engine *Engine, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, logger: logger}
}

// chatResponse mirrors the widget contract: leadId and conversationId are
// null when no lead was identified or the turn could not be persisted.
type chatResponse struct {
	Response       string             `json:"response"`
	LeadCollected  bool               `json:"leadCollected"`
	LeadID         *string            `json:"leadId"`
	ExtractedInfo  *leads.ContactInfo `json:"extractedInfo,omitempty"`
	ConversationID *string            `json:"conversationId"`
}

// Chat handles POST /chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	result, err := h.engine.Chat(r.Context(), req)
	if err != nil {
		h.logger.Error("chat request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	resp := chatResponse{
		Response:      result.Response,
		LeadCollected: result.LeadCollected,
		LeadID:        nullable(result.LeadID),
		ExtractedInfo: result.ExtractedInfo,
		ConversationID: nullable(result.ConversationID),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
