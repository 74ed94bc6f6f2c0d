package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vectorsoft/leadgate/internal/leads"
	"github.com/vectorsoft/leadgate/pkg/logging"
)

const extractionPromptFmt = `Extract contact information from the following message. Return a JSON object with these fields:
- name: Full name if present (or null)
- email: Email address if present (or null)
- phone: Phone number if present (or null)
- company: Company name if present (or null)

Message: %q

Respond only with valid JSON. If a field is not found, set it to null.`

// ContactExtractor pulls structured contact data out of a free-text message
// with a zero-temperature inference call. Extraction is best-effort: every
// failure path yields nil so it never blocks the conversational reply.
type ContactExtractor struct {
	llm    LLMClient
	logger *logging.Logger
}

// NewContactExtractor creates a contact extractor.
func NewContactExtractor(llm LLMClient, logger *logging.Logger) *ContactExtractor {
	if logger == nil {
		logger = logging.Default()
	}
	return &ContactExtractor{llm: llm, logger: logger}
}

// Extract returns the contact fields found in message, or nil when nothing
// could be extracted.
func (e *ContactExtractor) Extract(ctx context.Context, message string) *leads.ContactInfo {
	if strings.TrimSpace(message) == "" {
		return nil
	}

	resp, err := e.llm.Complete(ctx, LLMRequest{
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: fmt.Sprintf(extractionPromptFmt, message)}},
		Temperature: 0,
		MaxTokens:   150,
		ForceJSON:   true,
	})
	if err != nil {
		e.logger.Warn("contact extraction failed", "error", err)
		return nil
	}

	var parsed struct {
		Name    *string `json:"name"`
		Email   *string `json:"email"`
		Phone   *string `json:"phone"`
		Company *string `json:"company"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Text)), &parsed); err != nil {
		e.logger.Warn("contact extraction returned malformed JSON", "error", err)
		return nil
	}

	info := leads.ContactInfo{
		Name:    deref(parsed.Name),
		Email:   deref(parsed.Email),
		Phone:   deref(parsed.Phone),
		Company: deref(parsed.Company),
	}
	return &info
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// stripCodeFence removes a markdown ```json fence some models wrap JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
