package conversation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vectorsoft/leadgate/internal/leads"
	"github.com/vectorsoft/leadgate/internal/observability/metrics"
	"github.com/vectorsoft/leadgate/internal/settings"
	"github.com/vectorsoft/leadgate/pkg/logging"
)

var tracer = otel.Tracer("leadgate.internal.conversation")

// SettingsSource provides the current effective company settings.
type SettingsSource interface {
	Current(ctx context.Context) (*settings.CompanySettings, error)
}

// ChatRequest is one inbound widget message with optional caller-held state.
type ChatRequest struct {
	Message  string    `json:"message"`
	LeadInfo *LeadInfo `json:"leadInfo,omitempty"`
}

// LeadInfo carries the contact fields and prior turns the widget holds
// client-side between calls.
type LeadInfo struct {
	Email            string         `json:"email,omitempty"`
	Name             string         `json:"name,omitempty"`
	Phone            string         `json:"phone,omitempty"`
	Company          string         `json:"company,omitempty"`
	Requirements     string         `json:"requirements,omitempty"`
	LeadID           string         `json:"leadId,omitempty"`
	PreviousMessages []PriorMessage `json:"previousMessages,omitempty"`
}

// PriorMessage is one prior turn replayed by the widget.
type PriorMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	LeadID  string `json:"leadId,omitempty"`
}

// ChatResult is the engine's reply plus lead linkage.
type ChatResult struct {
	Response       string
	LeadCollected  bool
	LeadID         string
	ExtractedInfo  *leads.ContactInfo
	ConversationID string
}

// Engine turns a user message plus running history into an assistant reply
// and decides lead linkage.
type Engine struct {
	llm        LLMClient
	extractor  *ContactExtractor
	leadsRepo  leads.Repository
	turns      TurnStore
	source     SettingsSource
	logger     *logging.Logger
	metrics    *metrics.ChatMetrics
	llmTimeout time.Duration
}

// EngineConfig bundles the engine's dependencies.
type EngineConfig struct {
	LLM        LLMClient
	Extractor  *ContactExtractor
	LeadsRepo  leads.Repository
	Turns      TurnStore
	Settings   SettingsSource
	Logger     *logging.Logger
	Metrics    *metrics.ChatMetrics
	LLMTimeout time.Duration
}

// NewEngine creates a conversation engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.LLM == nil {
		panic("conversation: llm client required")
	}
	if cfg.LeadsRepo == nil {
		panic("conversation: leads repository required")
	}
	if cfg.Turns == nil {
		panic("conversation: turn store required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.LLMTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Engine{
		llm:        cfg.LLM,
		extractor:  cfg.Extractor,
		leadsRepo:  cfg.LeadsRepo,
		turns:      cfg.Turns,
		source:     cfg.Settings,
		logger:     logger,
		metrics:    cfg.Metrics,
		llmTimeout: timeout,
	}
}

// Chat produces the assistant's next reply. A resumed lead thread (prior
// turns ending with a known leadId) reuses that lead and skips extraction
// and merging entirely; otherwise contact data is extracted, merged with
// caller-supplied fields and upserted before the reply is generated.
func (e *Engine) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	ctx, span := tracer.Start(ctx, "conversation.chat")
	defer span.End()

	cfg := e.currentSettings(ctx)

	if lead := e.resumableLead(ctx, req.LeadInfo); lead != nil {
		span.SetAttributes(attribute.String("leadgate.lead_id", lead.ID), attribute.Bool("leadgate.resumed", true))
		return e.resume(ctx, req, cfg, lead)
	}

	extracted := e.extract(ctx, req.Message)

	merged := mergeLeadInfo(req.LeadInfo, extracted)

	var leadID string
	if merged.HasContact() {
		lead, err := e.leadsRepo.Upsert(ctx, merged)
		if err != nil {
			// Persistence is secondary to the reply; degrade, don't fail.
			e.logger.Error("lead upsert failed", "error", err)
		} else {
			leadID = lead.ID
			e.metrics.ObserveLeadUpsert()
		}
	}
	span.SetAttributes(attribute.String("leadgate.lead_id", leadID))

	suppliedComplete := req.LeadInfo != nil &&
		req.LeadInfo.Email != "" && req.LeadInfo.Name != "" && req.LeadInfo.Phone != ""

	messages := []ChatMessage{}
	if req.LeadInfo != nil {
		messages = append(messages, filterPriorMessages(req.LeadInfo.PreviousMessages)...)
	}
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: req.Message})

	reply, err := e.generateReply(ctx, BuildSystemPrompt(cfg, suppliedComplete), messages)
	if err != nil {
		e.metrics.ObserveRequest("llm_error")
		return nil, err
	}

	conversationID := e.persistTurn(ctx, leadID, req.Message, reply)

	e.metrics.ObserveRequest("ok")
	return &ChatResult{
		Response:       reply,
		LeadCollected:  merged.HasContact(),
		LeadID:         leadID,
		ExtractedInfo:  extracted,
		ConversationID: conversationID,
	}, nil
}

// resume handles the existing-lead fast path: prompt built from the stored
// lead's completeness, no extraction, no upsert.
func (e *Engine) resume(ctx context.Context, req ChatRequest, cfg *settings.CompanySettings, lead *leads.Lead) (*ChatResult, error) {
	hasFullContact := lead.Email != "" && lead.Name != "" && lead.Phone != ""

	messages := filterPriorMessages(req.LeadInfo.PreviousMessages)
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: req.Message})

	reply, err := e.generateReply(ctx, BuildSystemPrompt(cfg, hasFullContact), messages)
	if err != nil {
		e.metrics.ObserveRequest("llm_error")
		return nil, err
	}

	conversationID := e.persistTurn(ctx, lead.ID, req.Message, reply)

	e.metrics.ObserveRequest("ok")
	return &ChatResult{
		Response:       reply,
		LeadCollected:  true,
		LeadID:         lead.ID,
		ConversationID: conversationID,
	}, nil
}

// resumableLead returns the stored lead referenced by the trailing prior
// message, or nil when the thread cannot be resumed.
func (e *Engine) resumableLead(ctx context.Context, info *LeadInfo) *leads.Lead {
	if info == nil || len(info.PreviousMessages) == 0 {
		return nil
	}
	last := info.PreviousMessages[len(info.PreviousMessages)-1]
	if last.LeadID == "" {
		return nil
	}
	lead, err := e.leadsRepo.GetByID(ctx, last.LeadID)
	if err != nil {
		if err != leads.ErrLeadNotFound {
			e.logger.Error("lead lookup failed", "error", err, "lead_id", last.LeadID)
		}
		return nil
	}
	return lead
}

func (e *Engine) currentSettings(ctx context.Context) *settings.CompanySettings {
	if e.source == nil {
		return nil
	}
	cfg, err := e.source.Current(ctx)
	if err != nil {
		if err != settings.ErrNotFound {
			e.logger.Error("failed to fetch company settings", "error", err)
		}
		return nil
	}
	return cfg
}

func (e *Engine) extract(ctx context.Context, message string) *leads.ContactInfo {
	if e.extractor == nil {
		return nil
	}
	extractCtx, cancel := context.WithTimeout(ctx, e.llmTimeout)
	defer cancel()

	start := time.Now()
	info := e.extractor.Extract(extractCtx, message)
	e.metrics.ObserveLLMLatency("extract", time.Since(start).Seconds())
	return info
}

func (e *Engine) generateReply(ctx context.Context, systemPrompt string, messages []ChatMessage) (string, error) {
	llmCtx, cancel := context.WithTimeout(ctx, e.llmTimeout)
	defer cancel()

	start := time.Now()
	resp, err := e.llm.Complete(llmCtx, LLMRequest{
		System:      []string{systemPrompt},
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   150,
	})
	e.metrics.ObserveLLMLatency("reply", time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("conversation: reply generation failed: %w", err)
	}
	return resp.Text, nil
}

// persistTurn writes the conversation row. Failures are logged and swallowed:
// the reply has already been generated and must reach the visitor.
func (e *Engine) persistTurn(ctx context.Context, leadID, message, reply string) string {
	turn := &Turn{LeadID: leadID, Message: message, Response: reply}
	if err := e.turns.Insert(ctx, turn); err != nil {
		e.logger.Error("failed to save conversation turn", "error", err, "lead_id", leadID)
		return ""
	}
	return turn.ID
}

// mergeLeadInfo combines caller-supplied fields with extractor output:
// the first truthy supplied value wins, extraction is the fallback.
func mergeLeadInfo(supplied *LeadInfo, extracted *leads.ContactInfo) leads.ContactInfo {
	var merged leads.ContactInfo
	if supplied != nil {
		merged = leads.ContactInfo{
			Name:         supplied.Name,
			Email:        supplied.Email,
			Phone:        supplied.Phone,
			Company:      supplied.Company,
			Requirements: supplied.Requirements,
		}
	}
	if extracted != nil {
		if merged.Name == "" {
			merged.Name = extracted.Name
		}
		if merged.Email == "" {
			merged.Email = extracted.Email
		}
		if merged.Phone == "" {
			merged.Phone = extracted.Phone
		}
		if merged.Company == "" {
			merged.Company = extracted.Company
		}
	}
	return merged
}

// filterPriorMessages keeps only well-formed user/assistant entries.
func filterPriorMessages(prior []PriorMessage) []ChatMessage {
	var out []ChatMessage
	for _, msg := range prior {
		if msg.Content == "" {
			continue
		}
		if msg.Role != ChatRoleUser && msg.Role != ChatRoleAssistant {
			continue
		}
		out = append(out, ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}
