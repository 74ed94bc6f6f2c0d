package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockLLMClient implements LLMClient on the Bedrock Converse API.
type BedrockLLMClient struct {
	api     bedrockConverseAPI
	modelID string
}

// NewBedrockLLMClient creates a Bedrock-backed LLM client.
func NewBedrockLLMClient(api bedrockConverseAPI, modelID string) (*BedrockLLMClient, error) {
	if api == nil {
		return nil, errors.New("conversation: bedrock converse client is required")
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, errors.New("conversation: bedrock model id is required")
	}
	return &BedrockLLMClient{api: api, modelID: modelID}, nil
}

// Complete sends a completion request to Bedrock. Bedrock has no native JSON
// mode on Converse, so ForceJSON is enforced via an extra system block.
func (c *BedrockLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	systemBlocks := make([]brtypes.SystemContentBlock, 0, len(req.System)+1)
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		systemBlocks = append(systemBlocks, &brtypes.SystemContentBlockMemberText{Value: block})
	}
	if req.ForceJSON {
		systemBlocks = append(systemBlocks, &brtypes.SystemContentBlockMemberText{
			Value: "Respond with a single valid JSON object and nothing else.",
		})
	}

	messages := make([]brtypes.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		role := brtypes.ConversationRoleUser
		switch msg.Role {
		case ChatRoleSystem:
			systemBlocks = append(systemBlocks, &brtypes.SystemContentBlockMemberText{Value: content})
			continue
		case ChatRoleAssistant:
			role = brtypes.ConversationRoleAssistant
		}
		messages = append(messages, brtypes.Message{
			Role:    role,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: content}},
		})
	}
	if len(messages) == 0 {
		return LLMResponse{}, errors.New("conversation: bedrock requires at least one message")
	}

	inference := &brtypes.InferenceConfiguration{}
	if req.MaxTokens > 0 {
		inference.MaxTokens = aws.Int32(req.MaxTokens)
	}
	if req.Temperature >= 0 {
		inference.Temperature = aws.Float32(req.Temperature)
	}

	out, err := c.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:         aws.String(c.modelID),
		System:          systemBlocks,
		Messages:        messages,
		InferenceConfig: inference,
	})
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: bedrock completion failed: %w", err)
	}

	output, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok || len(output.Value.Content) == 0 {
		return LLMResponse{}, errors.New("conversation: bedrock returned empty output")
	}

	var text strings.Builder
	for _, block := range output.Value.Content {
		if t, ok := block.(*brtypes.ContentBlockMemberText); ok {
			text.WriteString(t.Value)
		}
	}

	return LLMResponse{
		Text:       strings.TrimSpace(text.String()),
		StopReason: string(out.StopReason),
	}, nil
}

var _ LLMClient = (*BedrockLLMClient)(nil)
