package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vectorsoft/leadgate/internal/conversation"
	"github.com/vectorsoft/leadgate/pkg/logging"
)

// defaultContent is used when the model returns an empty body.
const defaultContent = "Default Email Content"

const contentSystemPrompt = "Generate a personalized daily email update based on the user's conversation history."

// ContentGenerator turns a lead's conversation history into a digest
// email body.
type ContentGenerator struct {
	llm     conversation.LLMClient
	logger  *logging.Logger
	timeout time.Duration
}

// NewContentGenerator creates a generator. A zero timeout defaults to 30s.
func NewContentGenerator(llm conversation.LLMClient, logger *logging.Logger, timeout time.Duration) *ContentGenerator {
	if llm == nil {
		panic("digest: llm client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ContentGenerator{llm: llm, logger: logger, timeout: timeout}
}

// renderTranscript formats turns one per line pair for the model.
func renderTranscript(turns []conversation.Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, fmt.Sprintf("User: %s\nAI: %s", t.Message, t.Response))
	}
	return strings.Join(lines, "\n")
}

// Generate produces the digest body for a lead's history. An empty
// model reply falls back to a fixed default rather than failing.
func (g *ContentGenerator) Generate(ctx context.Context, turns []conversation.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := fmt.Sprintf("Here are the recent conversations:\n%s\nGenerate a friendly email update.", renderTranscript(turns))
	resp, err := g.llm.Complete(ctx, conversation.LLMRequest{
		System: []string{contentSystemPrompt},
		Messages: []conversation.ChatMessage{
			{Role: conversation.ChatRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("digest: content generation failed: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		g.logger.Warn("digest model returned empty body, using default content")
		return defaultContent, nil
	}
	return resp.Text, nil
}
