package conversation

import (
	"strings"
	"testing"

	"github.com/vectorsoft/leadgate/internal/settings"
)

func TestBuildSystemPromptDefaults(t *testing.T) {
	collecting := BuildSystemPrompt(nil, false)
	if !strings.Contains(collecting, "collect visitor information") {
		t.Errorf("expected collecting variant, got %q", collecting)
	}

	needs := BuildSystemPrompt(nil, true)
	if !strings.Contains(needs, "understanding requirements") {
		t.Errorf("expected needs-focused variant, got %q", needs)
	}
}

func TestBuildSystemPromptTemplate(t *testing.T) {
	cfg := &settings.CompanySettings{
		CompanyName:    "Acme",
		Description:    "We build things",
		Services:       []string{"Web", "Mobile"},
		CaseStudies:    []string{"Case A", "Case B"},
		SpecialOffers:  []string{"10% off"},
		PromptTemplate: "You work for {companyName}: {description}. Services: {services}. Studies:\n{caseStudies}\nOffers:\n{specialOffers}",
	}

	got := BuildSystemPrompt(cfg, false)

	if !strings.Contains(got, "You work for Acme: We build things.") {
		t.Errorf("company fields not substituted: %q", got)
	}
	// Services join by comma, list fields by newline.
	if !strings.Contains(got, "Services: Web, Mobile.") {
		t.Errorf("services not comma-joined: %q", got)
	}
	if !strings.Contains(got, "Case A\nCase B") {
		t.Errorf("case studies not newline-joined: %q", got)
	}
}

func TestBuildSystemPromptTemplateIgnoresVariant(t *testing.T) {
	cfg := &settings.CompanySettings{PromptTemplate: "fixed prompt"}
	if BuildSystemPrompt(cfg, true) != "fixed prompt" || BuildSystemPrompt(cfg, false) != "fixed prompt" {
		t.Error("configured template must be used regardless of contact completeness")
	}
}
