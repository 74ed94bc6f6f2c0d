package conversation

import (
	"strings"

	"github.com/vectorsoft/leadgate/internal/settings"
)

// Built-in prompts used when no company settings exist. The collecting
// variant is used until the lead has shared name, email and phone; the
// needs-focused variant afterwards.
const (
	defaultCollectingPrompt = "You are a friendly AI assistant. Please collect visitor information including name, email, and phone."
	defaultNeedsPrompt      = "You are a friendly and professional AI assistant. Focus on understanding requirements and providing solutions."
)

// BuildSystemPrompt renders the configured prompt template, or falls back to
// the built-in pair. hasFullContact selects the variant: true once the lead's
// name, email and phone are all known.
func BuildSystemPrompt(cfg *settings.CompanySettings, hasFullContact bool) string {
	if cfg == nil {
		if hasFullContact {
			return defaultNeedsPrompt
		}
		return defaultCollectingPrompt
	}

	replacer := strings.NewReplacer(
		"{companyName}", cfg.CompanyName,
		"{description}", cfg.Description,
		"{services}", strings.Join(cfg.Services, ", "),
		"{caseStudies}", strings.Join(cfg.CaseStudies, "\n"),
		"{specialOffers}", strings.Join(cfg.SpecialOffers, "\n"),
	)
	return replacer.Replace(cfg.PromptTemplate)
}
