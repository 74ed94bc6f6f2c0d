package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type openaiChatAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAILLMClient implements LLMClient on the OpenAI chat completions API.
type OpenAILLMClient struct {
	api   openaiChatAPI
	model string
}

// NewOpenAILLMClient creates an OpenAI-backed LLM client.
func NewOpenAILLMClient(apiKey, model string) (*OpenAILLMClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("conversation: openai api key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAILLMClient{api: openai.NewClient(apiKey), model: model}, nil
}

// Complete sends a completion request to OpenAI.
func (c *OpenAILLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.System)+len(req.Messages))
	for _, system := range req.System {
		if strings.TrimSpace(system) == "" {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case ChatRoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case ChatRoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: content})
	}
	if len(messages) == 0 {
		return LLMResponse{}, errors.New("conversation: openai requires at least one message")
	}

	request := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		request.MaxTokens = int(req.MaxTokens)
	}
	if req.ForceJSON {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, request)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return LLMResponse{}, errors.New("conversation: openai returned no choices")
	}

	choice := resp.Choices[0]
	return LLMResponse{
		Text:       strings.TrimSpace(choice.Message.Content),
		StopReason: string(choice.FinishReason),
	}, nil
}

var _ LLMClient = (*OpenAILLMClient)(nil)
