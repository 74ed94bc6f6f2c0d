package digest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vectorsoft/leadgate/internal/conversation"
	"github.com/vectorsoft/leadgate/internal/notify"
)

// llmFunc adapts a function to conversation.LLMClient.
type llmFunc func(ctx context.Context, req conversation.LLMRequest) (conversation.LLMResponse, error)

func (f llmFunc) Complete(ctx context.Context, req conversation.LLMRequest) (conversation.LLMResponse, error) {
	return f(ctx, req)
}

func staticLLM(text string) llmFunc {
	return func(ctx context.Context, req conversation.LLMRequest) (conversation.LLMResponse, error) {
		return conversation.LLMResponse{Text: text}, nil
	}
}

// recordingSender captures delivered messages.
type recordingSender struct {
	mu   sync.Mutex
	sent []notify.EmailMessage
	err  error
}

func (s *recordingSender) Send(ctx context.Context, msg notify.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messages() []notify.EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.EmailMessage(nil), s.sent...)
}

// memSchedules is an in-memory ScheduleStore.
type memSchedules struct {
	mu    sync.Mutex
	items []Schedule
}

func (m *memSchedules) UpsertForLead(ctx context.Context, leadID, timeOfDay, frequency string) (*Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if frequency == "" {
		frequency = FrequencyDaily
	}
	now := time.Now()
	for i := range m.items {
		if m.items[i].LeadID == leadID {
			m.items[i].Time = timeOfDay
			m.items[i].Frequency = frequency
			m.items[i].Enabled = true
			m.items[i].UpdatedAt = now
			sched := m.items[i]
			return &sched, nil
		}
	}
	sched := Schedule{
		ID:        uuid.New().String(),
		LeadID:    leadID,
		Time:      timeOfDay,
		Frequency: frequency,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.items = append(m.items, sched)
	return &sched, nil
}

func (m *memSchedules) ListByLead(ctx context.Context, leadID string) ([]Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Schedule
	for _, s := range m.items {
		if s.LeadID == leadID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSchedules) UpdateByID(ctx context.Context, id string, upd ScheduleUpdate) (*Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID != id {
			continue
		}
		if upd.Enabled != nil {
			m.items[i].Enabled = *upd.Enabled
		}
		if upd.Time != "" {
			m.items[i].Time = upd.Time
		}
		if upd.Frequency != "" {
			m.items[i].Frequency = upd.Frequency
		}
		m.items[i].UpdatedAt = time.Now()
		sched := m.items[i]
		return &sched, nil
	}
	return nil, ErrScheduleNotFound
}

func (m *memSchedules) ListEnabled(ctx context.Context) ([]Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Schedule
	for _, s := range m.items {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSchedules) MarkSent(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			t := at
			m.items[i].LastSent = &t
			return nil
		}
	}
	return ErrScheduleNotFound
}

func (m *memSchedules) get(id string) *Schedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			sched := m.items[i]
			return &sched
		}
	}
	return nil
}

// memHistory is an in-memory HistoryStore.
type memHistory struct {
	mu    sync.Mutex
	items []HistoryEntry
	now   func() time.Time
}

func newMemHistory() *memHistory {
	return &memHistory{now: time.Now}
}

func (m *memHistory) Insert(ctx context.Context, entry *HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.SentAt = m.now()
	m.items = append(m.items, *entry)
	return nil
}

func (m *memHistory) SentToday(ctx context.Context, leadID string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)
	for _, e := range m.items {
		if e.LeadID == leadID && !e.SentAt.Before(start) && e.SentAt.Before(end) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memHistory) List(ctx context.Context) ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]HistoryEntry(nil), m.items...), nil
}

var (
	_ ScheduleStore = (*memSchedules)(nil)
	_ HistoryStore  = (*memHistory)(nil)
)
