package digest

import (
	"context"
	"fmt"

	"github.com/vectorsoft/leadgate/internal/conversation"
	"github.com/vectorsoft/leadgate/internal/notify"
	"github.com/vectorsoft/leadgate/pkg/logging"
)

const digestSubject = "Your Daily Conversation Update"

// Service composes content generation, delivery, and the history
// audit trail. Both the scheduler and the immediate-send handler path
// go through it.
type Service struct {
	generator *ContentGenerator
	sender    notify.EmailSender
	history   HistoryStore
	logger    *logging.Logger
}

// NewService creates the digest service.
func NewService(generator *ContentGenerator, sender notify.EmailSender, history HistoryStore, logger *logging.Logger) *Service {
	if generator == nil {
		panic("digest: content generator required")
	}
	if sender == nil {
		panic("digest: email sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{generator: generator, sender: sender, history: history, logger: logger}
}

// SendDigest generates, delivers, and records one digest. The history
// row is written only when a leadID is known.
func (s *Service) SendDigest(ctx context.Context, leadID, email, name string, turns []conversation.Turn) error {
	content, err := s.generator.Generate(ctx, turns)
	if err != nil {
		return err
	}

	msg := notify.EmailMessage{
		To:      email,
		ToName:  name,
		Subject: digestSubject,
		Body:    content,
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("digest: delivery failed: %w", err)
	}

	if leadID != "" && s.history != nil {
		entry := &HistoryEntry{LeadID: leadID, Email: email, Content: content}
		if err := s.history.Insert(ctx, entry); err != nil {
			return fmt.Errorf("digest: history write failed: %w", err)
		}
	}
	return nil
}
