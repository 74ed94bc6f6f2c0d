package digest

import (
	"context"
	"sync"
	"time"

	"github.com/vectorsoft/leadgate/internal/conversation"
	"github.com/vectorsoft/leadgate/internal/leads"
	"github.com/vectorsoft/leadgate/internal/observability/metrics"
	"github.com/vectorsoft/leadgate/pkg/logging"
)

// Scheduler drives recurring digest sends from a wall-clock ticker.
// The tick interval must not exceed the matching window or scheduled
// sends can be missed entirely.
type Scheduler struct {
	schedules ScheduleStore
	history   HistoryStore
	repo      leads.Repository
	turns     conversation.TurnStore
	service   *Service
	logger    *logging.Logger
	metrics   *metrics.SchedulerMetrics

	interval  time.Duration
	window    time.Duration
	sendDelay time.Duration
	now       func() time.Time

	// mu serializes ticks; an overlapping tick is skipped, not queued.
	mu sync.Mutex
}

// SchedulerConfig wires the scheduler's collaborators.
type SchedulerConfig struct {
	Schedules ScheduleStore
	History   HistoryStore
	Leads     leads.Repository
	Turns     conversation.TurnStore
	Service   *Service
	Logger    *logging.Logger
	Metrics   *metrics.SchedulerMetrics

	Interval  time.Duration // tick period, default 4m
	Window    time.Duration // max distance from the scheduled instant, default 4m
	SendDelay time.Duration // pacing between sends, default 1s
	Now       func() time.Time
}

// NewScheduler creates a scheduler. Interval, window, and pacing fall
// back to production defaults when unset.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Schedules == nil || cfg.History == nil || cfg.Leads == nil || cfg.Turns == nil || cfg.Service == nil {
		panic("digest: scheduler requires stores, repository, and service")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 4 * time.Minute
	}
	if cfg.Window <= 0 {
		cfg.Window = 4 * time.Minute
	}
	if cfg.SendDelay < 0 {
		cfg.SendDelay = 0
	} else if cfg.SendDelay == 0 {
		cfg.SendDelay = time.Second
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now() }
	}
	return &Scheduler{
		schedules: cfg.Schedules,
		history:   cfg.History,
		repo:      cfg.Leads,
		turns:     cfg.Turns,
		service:   cfg.Service,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		interval:  cfg.Interval,
		window:    cfg.Window,
		sendDelay: cfg.SendDelay,
		now:       cfg.Now,
	}
}

// Run ticks until ctx is cancelled. Call it from its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("digest scheduler started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("digest scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick processes every enabled schedule once. A tick that fires while
// a prior tick is still running is skipped.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.mu.TryLock() {
		s.logger.Warn("skipping tick, previous tick still running")
		s.metrics.ObserveOverlapSkipped()
		return
	}
	defer s.mu.Unlock()
	s.metrics.ObserveTick()

	now := s.now()
	active, err := s.schedules.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("schedule listing failed", "error", err)
		return
	}
	s.logger.Info("checking schedules", "time", now.Format("15:04"), "active", len(active))

	for i, sched := range active {
		if err := ctx.Err(); err != nil {
			return
		}
		sent, err := s.processSchedule(ctx, sched, now)
		if err != nil {
			// Per-schedule isolation: one failing lead never
			// blocks the rest of the run.
			s.logger.Error("schedule processing failed", "schedule_id", sched.ID, "lead_id", sched.LeadID, "error", err)
			s.metrics.ObserveSend("error")
			continue
		}
		if sent {
			s.metrics.ObserveSend("ok")
			if i < len(active)-1 {
				s.pause(ctx)
			}
		}
	}
}

// processSchedule evaluates one schedule and sends when due. Returns
// whether a digest was sent.
func (s *Scheduler) processSchedule(ctx context.Context, sched Schedule, now time.Time) (bool, error) {
	target, err := scheduledInstant(sched.Time, now)
	if err != nil {
		return false, err
	}
	if diff := now.Sub(target); diff > s.window || diff < -s.window {
		return false, nil
	}

	lead, err := s.repo.GetByID(ctx, sched.LeadID)
	if err != nil {
		return false, err
	}
	turns, err := s.turns.ListByLead(ctx, lead.ID)
	if err != nil {
		return false, err
	}
	if lead.Email == "" || len(turns) == 0 {
		s.logger.Info("skipping schedule", "lead_id", lead.ID, "reason", "no email or conversations")
		return false, nil
	}

	// The same-day guard runs before the frequency check and wins
	// regardless of what the frequency logic would decide.
	alreadySent, err := s.history.SentToday(ctx, lead.ID, now)
	if err != nil {
		return false, err
	}
	if alreadySent {
		s.logger.Info("already sent email today", "lead_id", lead.ID, "email", lead.Email)
		return false, nil
	}

	if !shouldSend(sched.Frequency, sched.LastSent, now) {
		return false, nil
	}

	s.logger.Info("sending digest", "lead_id", lead.ID, "email", lead.Email)
	if err := s.service.SendDigest(ctx, lead.ID, lead.Email, lead.Name, turns); err != nil {
		return false, err
	}
	if err := s.schedules.MarkSent(ctx, sched.ID, now); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Scheduler) pause(ctx context.Context) {
	if s.sendDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.sendDelay):
	}
}

// scheduledInstant resolves an HH:mm time-of-day against now's
// calendar day and location.
func scheduledInstant(timeOfDay string, now time.Time) (time.Time, error) {
	parsed, err := time.Parse("15:04", timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(now.Year(), now.Month(), now.Day(), parsed.Hour(), parsed.Minute(), 0, 0, now.Location()), nil
}

// shouldSend implements the frequency-specific due logic. A schedule
// that has never fired is always due.
func shouldSend(frequency string, lastSent *time.Time, now time.Time) bool {
	if lastSent == nil {
		return true
	}
	switch frequency {
	case FrequencyDaily:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 0, 1)
		return lastSent.Before(start) || !lastSent.Before(end)
	case FrequencyWeekly:
		return now.Sub(*lastSent) >= 7*24*time.Hour
	case FrequencyMonthly:
		return now.Month() != lastSent.Month() || now.Year() != lastSent.Year()
	default:
		return true
	}
}
