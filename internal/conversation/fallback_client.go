package conversation

import (
	"context"

	"github.com/vectorsoft/leadgate/pkg/logging"
)

// FallbackLLMClient wraps a primary LLM client with a secondary provider
// that is tried when the primary fails.
type FallbackLLMClient struct {
	primary  LLMClient
	fallback LLMClient
	logger   *logging.Logger
}

// NewFallbackLLMClient creates a fallback-enabled client. A nil fallback
// leaves only the primary in play.
func NewFallbackLLMClient(primary, fallback LLMClient, logger *logging.Logger) *FallbackLLMClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackLLMClient{primary: primary, fallback: fallback, logger: logger}
}

// Complete tries the primary provider, then the fallback.
func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}

	if c.fallback == nil {
		return LLMResponse{}, err
	}

	c.logger.Warn("primary LLM failed, trying fallback", "error", err)
	resp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback LLM also failed",
			"primary_error", err,
			"fallback_error", fallbackErr,
		)
		return LLMResponse{}, fallbackErr
	}
	return resp, nil
}

var _ LLMClient = (*FallbackLLMClient)(nil)
