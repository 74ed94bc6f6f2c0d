package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/vectorsoft/leadgate/internal/conversation"
	"github.com/vectorsoft/leadgate/internal/leads"
	"github.com/vectorsoft/leadgate/pkg/logging"
)

// Handler serves GET /leads: the full lead list, each entry scored
// fresh against its current conversation history.
type Handler struct {
	repo   leads.Repository
	turns  conversation.TurnStore
	engine *Engine
	logger *logging.Logger
}

// NewHandler creates the leads listing handler.
func NewHandler(repo leads.Repository, turns conversation.TurnStore, engine *Engine, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, turns: turns, engine: engine, logger: logger}
}

// ScoredLead is one entry of the GET /leads response.
type ScoredLead struct {
	leads.Lead
	Conversations []conversation.Turn `json:"conversations"`
	Score         int                 `json:"score"`
	Interest      string              `json:"interest"`
	Insights      MessageInsights     `json:"messageInsights"`
	Reasoning     string              `json:"reasoning"`
	Engagement    Engagement          `json:"engagement"`
	CloseChance   string              `json:"closeChance"`
}

// List handles GET /leads. Scoring calls run concurrently, one per
// lead; a failing call degrades only its own entry.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	all, err := h.repo.List(ctx)
	if err != nil {
		h.logger.Error("lead listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch leads")
		return
	}

	scored := make([]ScoredLead, len(all))
	var wg sync.WaitGroup
	for i, lead := range all {
		wg.Add(1)
		go func(i int, lead *leads.Lead) {
			defer wg.Done()
			scored[i] = h.scoreOne(ctx, lead)
		}(i, lead)
	}
	wg.Wait()

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(scored)
}

func (h *Handler) scoreOne(ctx context.Context, lead *leads.Lead) ScoredLead {
	turns, err := h.turns.ListByLead(ctx, lead.ID)
	if err != nil {
		h.logger.Error("conversation lookup failed", "lead_id", lead.ID, "error", err)
		turns = nil
	}
	if turns == nil {
		turns = []conversation.Turn{}
	}

	analysis := h.engine.Analyze(ctx, turns)
	return ScoredLead{
		Lead:          *lead,
		Conversations: turns,
		Score:         analysis.Score,
		Interest:      analysis.Interest,
		Insights:      analysis.Insights,
		Reasoning:     analysis.Reasoning,
		Engagement:    ComputeEngagement(turns),
		CloseChance:   fmt.Sprintf("%d%%", analysis.Score),
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
