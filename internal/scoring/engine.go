// Package scoring rates a lead's potential from their conversation
// history. Scores are recomputed on every read so they always reflect
// the current history.
package scoring

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/vectorsoft/leadgate/internal/conversation"
	"github.com/vectorsoft/leadgate/pkg/logging"
)

const analysisSystemPrompt = `Analyze these user messages and score the lead potential. Look for:
1. Project requirements mentioned
2. Technical details shared
3. Timeline indicators
4. Budget mentions
5. Contact information shared

Return JSON with:
{
    "score": number (0-100),
    "interest": "Cold/Warm/Medium/Hot",
    "messageInsights": {
        "projectScope": string,
        "technicalNeeds": string,
        "timeframe": string,
        "budgetIndication": string
    },
    "reasoning": string
}`

// MessageInsights summarizes what the visitor revealed across the
// conversation.
type MessageInsights struct {
	ProjectScope     string `json:"projectScope"`
	TechnicalNeeds   string `json:"technicalNeeds"`
	Timeframe        string `json:"timeframe"`
	BudgetIndication string `json:"budgetIndication"`
}

// Analysis is the model-derived assessment of a lead.
type Analysis struct {
	Score     int             `json:"score"`
	Interest  string          `json:"interest"`
	Insights  MessageInsights `json:"messageInsights"`
	Reasoning string          `json:"reasoning"`
}

// Engagement carries metrics derived locally from the turn list, with
// no inference call involved.
type Engagement struct {
	MessageCount    int        `json:"messageCount"`
	DurationMinutes int        `json:"durationMinutes"`
	LastActivity    *time.Time `json:"lastActivity"`
}

// Engine scores leads through an LLM call over visitor-side messages.
type Engine struct {
	llm     conversation.LLMClient
	logger  *logging.Logger
	timeout time.Duration
}

// NewEngine creates a scoring engine. A zero timeout defaults to 30s.
func NewEngine(llm conversation.LLMClient, logger *logging.Logger, timeout time.Duration) *Engine {
	if llm == nil {
		panic("scoring: llm client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Engine{llm: llm, logger: logger, timeout: timeout}
}

// newLeadAnalysis is the fixed result for leads with no history. No
// model call is made for these.
func newLeadAnalysis() Analysis {
	return Analysis{
		Score:    0,
		Interest: "New",
		Insights: MessageInsights{
			ProjectScope:     "No conversations yet",
			TechnicalNeeds:   "No conversations yet",
			Timeframe:        "No conversations yet",
			BudgetIndication: "No conversations yet",
		},
		Reasoning: "No conversations to analyze",
	}
}

// failedAnalysis is the degraded result when the model call or parse
// fails. Scoring never returns an error to its caller.
func failedAnalysis() Analysis {
	return Analysis{
		Score:    0,
		Interest: "Cold",
		Insights: MessageInsights{
			ProjectScope:     "Analysis failed",
			TechnicalNeeds:   "Analysis failed",
			Timeframe:        "Analysis failed",
			BudgetIndication: "Analysis failed",
		},
		Reasoning: "Analysis failed",
	}
}

// Analyze scores a lead from their chronological turn list. Only the
// visitor side of each turn is submitted to the model.
func (e *Engine) Analyze(ctx context.Context, turns []conversation.Turn) Analysis {
	if len(turns) == 0 {
		return newLeadAnalysis()
	}

	messages := make([]string, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, t.Message)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.llm.Complete(ctx, conversation.LLMRequest{
		System: []string{analysisSystemPrompt},
		Messages: []conversation.ChatMessage{
			{Role: conversation.ChatRoleUser, Content: strings.Join(messages, "\n")},
		},
		Temperature: 0.3,
		ForceJSON:   true,
	})
	if err != nil {
		e.logger.Error("lead analysis call failed", "error", err)
		return failedAnalysis()
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Text)), &analysis); err != nil {
		e.logger.Error("lead analysis returned unparseable output", "error", err)
		return failedAnalysis()
	}
	if analysis.Score < 0 {
		analysis.Score = 0
	}
	if analysis.Score > 100 {
		analysis.Score = 100
	}
	if analysis.Interest == "" {
		analysis.Interest = "Cold"
	}
	return analysis
}

// ComputeEngagement derives message-count and duration metrics from
// the turn list without any model call.
func ComputeEngagement(turns []conversation.Turn) Engagement {
	eng := Engagement{MessageCount: len(turns)}
	if len(turns) == 0 {
		return eng
	}
	first := turns[0].Timestamp
	last := turns[len(turns)-1].Timestamp
	eng.DurationMinutes = int(math.Round(last.Sub(first).Minutes()))
	eng.LastActivity = &last
	return eng
}
