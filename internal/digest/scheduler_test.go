package digest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vectorsoft/leadgate/internal/conversation"
	"github.com/vectorsoft/leadgate/internal/leads"
	"github.com/vectorsoft/leadgate/pkg/logging"
)

func TestShouldSend(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 2, 0, 0, time.UTC)
	at := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name      string
		frequency string
		lastSent  *time.Time
		want      bool
	}{
		{"never sent is always due", FrequencyDaily, nil, true},
		{"daily sent earlier today", FrequencyDaily, at(time.Date(2026, 2, 1, 7, 0, 0, 0, time.UTC)), false},
		{"daily sent yesterday", FrequencyDaily, at(time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)), true},
		{"weekly six days ago", FrequencyWeekly, at(now.Add(-6 * 24 * time.Hour)), false},
		{"weekly seven days ago", FrequencyWeekly, at(now.Add(-7 * 24 * time.Hour)), true},
		{"monthly sent Jan 15, now Feb 1", FrequencyMonthly, at(time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)), true},
		{"monthly sent last year same month", FrequencyMonthly, at(time.Date(2025, 2, 10, 10, 0, 0, 0, time.UTC)), true},
		{"unknown frequency is always due", "fortnightly", at(now.Add(-time.Hour)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldSend(tt.frequency, tt.lastSent, now); got != tt.want {
				t.Errorf("shouldSend(%s, %v) = %v, want %v", tt.frequency, tt.lastSent, got, tt.want)
			}
		})
	}
}

func TestShouldSendMonthlySameMonth(t *testing.T) {
	lastSent := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	now := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)
	if shouldSend(FrequencyMonthly, &lastSent, now) {
		t.Error("monthly schedule must not fire twice within one month")
	}
}

type schedulerFixture struct {
	schedules *memSchedules
	history   *memHistory
	repo      *leads.InMemoryRepository
	turns     *conversation.InMemoryStore
	sender    *recordingSender
	scheduler *Scheduler
}

func newSchedulerFixture(t *testing.T, now time.Time) *schedulerFixture {
	t.Helper()
	f := &schedulerFixture{
		schedules: &memSchedules{},
		history:   newMemHistory(),
		repo:      leads.NewInMemoryRepository(),
		turns:     conversation.NewInMemoryStore(),
		sender:    &recordingSender{},
	}
	f.history.now = func() time.Time { return now }
	service := NewService(NewContentGenerator(staticLLM("your digest"), logging.Default(), 0), f.sender, f.history, logging.Default())
	f.scheduler = NewScheduler(SchedulerConfig{
		Schedules: f.schedules,
		History:   f.history,
		Leads:     f.repo,
		Turns:     f.turns,
		Service:   service,
		Logger:    logging.Default(),
		SendDelay: -1, // no pacing in tests
		Now:       func() time.Time { return now },
	})
	return f
}

func (f *schedulerFixture) addLead(t *testing.T, email string) *leads.Lead {
	t.Helper()
	lead, err := f.repo.Upsert(context.Background(), leads.ContactInfo{Name: "Jane", Email: email})
	if err != nil {
		t.Fatalf("upsert lead: %v", err)
	}
	if err := f.turns.Insert(context.Background(), &conversation.Turn{LeadID: lead.ID, Message: "hi", Response: "hello"}); err != nil {
		t.Fatalf("insert turn: %v", err)
	}
	return lead
}

func TestTickSendsDueSchedule(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 2, 0, 0, time.UTC)
	f := newSchedulerFixture(t, now)
	lead := f.addLead(t, "jane@example.com")
	sched, _ := f.schedules.UpsertForLead(context.Background(), lead.ID, "09:00", FrequencyDaily)

	f.scheduler.Tick(context.Background())

	msgs := f.sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d emails, want 1", len(msgs))
	}
	if msgs[0].To != "jane@example.com" || msgs[0].Subject != "Your Daily Conversation Update" {
		t.Errorf("unexpected message %+v", msgs[0])
	}
	entries, _ := f.history.List(context.Background())
	if len(entries) != 1 || entries[0].LeadID != lead.ID {
		t.Errorf("expected one history row for the lead, got %+v", entries)
	}
	updated := f.schedules.get(sched.ID)
	if updated.LastSent == nil || !updated.LastSent.Equal(now) {
		t.Errorf("lastSent = %v, want %v", updated.LastSent, now)
	}
}

func TestTickOutsideWindowSkips(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	f := newSchedulerFixture(t, now)
	lead := f.addLead(t, "jane@example.com")
	f.schedules.UpsertForLead(context.Background(), lead.ID, "09:00", FrequencyDaily)

	f.scheduler.Tick(context.Background())

	if len(f.sender.messages()) != 0 {
		t.Error("schedule outside the matching window must not send")
	}
}

func TestTickSameDayGuardBeatsFrequency(t *testing.T) {
	// Weekly schedule last sent 8 days ago: the frequency check alone
	// says due, but a history row from earlier today wins.
	now := time.Date(2026, 2, 1, 9, 2, 0, 0, time.UTC)
	f := newSchedulerFixture(t, now)
	lead := f.addLead(t, "jane@example.com")
	sched, _ := f.schedules.UpsertForLead(context.Background(), lead.ID, "09:00", FrequencyWeekly)
	eightDaysAgo := now.Add(-8 * 24 * time.Hour)
	f.schedules.MarkSent(context.Background(), sched.ID, eightDaysAgo)
	f.history.Insert(context.Background(), &HistoryEntry{LeadID: lead.ID, Email: lead.Email, Content: "earlier"})

	f.scheduler.Tick(context.Background())

	if len(f.sender.messages()) != 0 {
		t.Error("same-day history guard must suppress the send")
	}
	updated := f.schedules.get(sched.ID)
	if !updated.LastSent.Equal(eightDaysAgo) {
		t.Error("suppressed send must not touch lastSent")
	}
}

func TestTickSkipsLeadWithoutConversations(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 2, 0, 0, time.UTC)
	f := newSchedulerFixture(t, now)
	lead, err := f.repo.Upsert(context.Background(), leads.ContactInfo{Name: "Jane", Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("upsert lead: %v", err)
	}
	f.schedules.UpsertForLead(context.Background(), lead.ID, "09:00", FrequencyDaily)

	f.scheduler.Tick(context.Background())

	if len(f.sender.messages()) != 0 {
		t.Error("lead without conversation history must be skipped")
	}
}

func TestTickIsolatesPerScheduleFailures(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 2, 0, 0, time.UTC)
	f := newSchedulerFixture(t, now)
	bad := f.addLead(t, "bad@example.com")
	good := f.addLead(t, "good@example.com")
	f.schedules.UpsertForLead(context.Background(), bad.ID, "09:00", FrequencyDaily)
	f.schedules.UpsertForLead(context.Background(), good.ID, "09:00", FrequencyDaily)

	// Only the first lead's generation fails.
	calls := 0
	flaky := llmFunc(func(ctx context.Context, req conversation.LLMRequest) (conversation.LLMResponse, error) {
		calls++
		if calls == 1 {
			return conversation.LLMResponse{}, errors.New("provider outage")
		}
		return conversation.LLMResponse{Text: "your digest"}, nil
	})
	f.scheduler.service = NewService(NewContentGenerator(flaky, logging.Default(), 0), f.sender, f.history, logging.Default())

	f.scheduler.Tick(context.Background())

	msgs := f.sender.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d emails, want 1 (the non-failing schedule)", len(msgs))
	}
	if msgs[0].To != "good@example.com" {
		t.Errorf("surviving send went to %q", msgs[0].To)
	}
}

func TestTickSkipsWhenPriorTickRunning(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 2, 0, 0, time.UTC)
	f := newSchedulerFixture(t, now)
	lead := f.addLead(t, "jane@example.com")
	f.schedules.UpsertForLead(context.Background(), lead.ID, "09:00", FrequencyDaily)

	f.scheduler.mu.Lock()
	defer f.scheduler.mu.Unlock()
	f.scheduler.Tick(context.Background())

	if len(f.sender.messages()) != 0 {
		t.Error("overlapping tick must be skipped entirely")
	}
}
