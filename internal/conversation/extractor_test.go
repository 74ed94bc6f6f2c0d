package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/vectorsoft/leadgate/pkg/logging"
)

// fakeLLM replays canned responses and records requests.
type fakeLLM struct {
	responses []LLMResponse
	errs      []error
	requests  []LLMRequest
}

func (f *fakeLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	f.requests = append(f.requests, req)
	i := len(f.requests) - 1
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var resp LLMResponse
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return resp, err
}

func TestExtractParsesFields(t *testing.T) {
	llm := &fakeLLM{responses: []LLMResponse{{
		Text: `{"name":"Jane Doe","email":"jane@example.com","phone":null,"company":"Acme"}`,
	}}}
	extractor := NewContactExtractor(llm, logging.Default())

	info := extractor.Extract(context.Background(), "Hi, I'm Jane Doe from Acme, jane@example.com")
	if info == nil {
		t.Fatal("expected extraction result")
	}
	if info.Name != "Jane Doe" || info.Email != "jane@example.com" || info.Company != "Acme" {
		t.Errorf("unexpected extraction: %+v", info)
	}
	if info.Phone != "" {
		t.Errorf("null field must map to empty string, got %q", info.Phone)
	}

	req := llm.requests[0]
	if req.Temperature != 0 {
		t.Errorf("extraction must run at zero temperature, got %f", req.Temperature)
	}
	if !req.ForceJSON {
		t.Error("extraction must request JSON output")
	}
}

func TestExtractToleratesCodeFence(t *testing.T) {
	llm := &fakeLLM{responses: []LLMResponse{{
		Text: "```json\n{\"name\":\"Jane\",\"email\":null,\"phone\":null,\"company\":null}\n```",
	}}}
	extractor := NewContactExtractor(llm, logging.Default())

	info := extractor.Extract(context.Background(), "I'm Jane")
	if info == nil || info.Name != "Jane" {
		t.Fatalf("expected fenced JSON to parse, got %+v", info)
	}
}

func TestExtractFailuresYieldNil(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
	}{
		{"inference error", &fakeLLM{errs: []error{errors.New("boom")}}},
		{"malformed output", &fakeLLM{responses: []LLMResponse{{Text: "not json"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewContactExtractor(tt.llm, logging.Default())
			if info := extractor.Extract(context.Background(), "hello"); info != nil {
				t.Errorf("expected nil on %s, got %+v", tt.name, info)
			}
		})
	}
}

func TestExtractEmptyMessageSkipsModel(t *testing.T) {
	llm := &fakeLLM{}
	extractor := NewContactExtractor(llm, logging.Default())
	if info := extractor.Extract(context.Background(), "   "); info != nil {
		t.Errorf("expected nil for blank message, got %+v", info)
	}
	if len(llm.requests) != 0 {
		t.Error("blank message must not invoke the model")
	}
}
