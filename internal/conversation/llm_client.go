package conversation

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is an internal message representation that can include system prompts.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMRequest carries one completion call. ForceJSON asks the provider for
// machine-parseable JSON output where it supports a native JSON mode.
type LLMRequest struct {
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	ForceJSON   bool
}

// LLMResponse is the provider-agnostic completion result.
type LLMResponse struct {
	Text       string
	StopReason string
}

// LLMClient abstracts the inference provider behind one completion call.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
