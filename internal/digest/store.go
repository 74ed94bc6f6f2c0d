package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrScheduleNotFound is returned when a schedule id matches no row.
var ErrScheduleNotFound = errors.New("digest: schedule not found")

// ScheduleStore persists per-lead digest schedules.
type ScheduleStore interface {
	UpsertForLead(ctx context.Context, leadID, timeOfDay, frequency string) (*Schedule, error)
	ListByLead(ctx context.Context, leadID string) ([]Schedule, error)
	UpdateByID(ctx context.Context, id string, upd ScheduleUpdate) (*Schedule, error)
	ListEnabled(ctx context.Context) ([]Schedule, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
}

// HistoryStore persists the delivered-digest audit trail.
type HistoryStore interface {
	Insert(ctx context.Context, entry *HistoryEntry) error
	SentToday(ctx context.Context, leadID string, now time.Time) (bool, error)
	List(ctx context.Context) ([]HistoryEntry, error)
}

// PgxPool is the pool subset the store needs; pgxmock satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the Postgres-backed schedule and history store.
type Store struct {
	pool PgxPool
}

// NewStore initializes the digest store.
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("digest: pgx pool required")
	}
	return &Store{pool: pool}
}

const scheduleColumns = `id, lead_id, time, frequency, enabled, last_sent, created_at, updated_at`

// UpsertForLead creates or replaces the lead's schedule and enables
// it. The one-row-per-lead invariant is backed by a unique constraint
// on lead_id.
func (s *Store) UpsertForLead(ctx context.Context, leadID, timeOfDay, frequency string) (*Schedule, error) {
	if frequency == "" {
		frequency = FrequencyDaily
	}
	query := `
		INSERT INTO email_schedules (id, lead_id, time, frequency, enabled)
		VALUES ($1, $2, $3, $4, true)
		ON CONFLICT (lead_id) DO UPDATE
		SET time = EXCLUDED.time, frequency = EXCLUDED.frequency, enabled = true, updated_at = now()
		RETURNING ` + scheduleColumns
	row := s.pool.QueryRow(ctx, query, uuid.New().String(), leadID, timeOfDay, frequency)
	sched, err := scanSchedule(row)
	if err != nil {
		return nil, fmt.Errorf("digest: upsert schedule failed: %w", err)
	}
	return sched, nil
}

// ListByLead returns the lead's schedules (zero or one row).
func (s *Store) ListByLead(ctx context.Context, leadID string) ([]Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM email_schedules WHERE lead_id = $1`
	return s.querySchedules(ctx, query, leadID)
}

// UpdateByID applies a partial update to one schedule.
func (s *Store) UpdateByID(ctx context.Context, id string, upd ScheduleUpdate) (*Schedule, error) {
	query := `
		UPDATE email_schedules
		SET enabled = COALESCE($2, enabled),
		    time = COALESCE(NULLIF($3, ''), time),
		    frequency = COALESCE(NULLIF($4, ''), frequency),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + scheduleColumns
	row := s.pool.QueryRow(ctx, query, id, upd.Enabled, upd.Time, upd.Frequency)
	sched, err := scanSchedule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("digest: update schedule failed: %w", err)
	}
	return sched, nil
}

// ListEnabled returns every enabled schedule, oldest first.
func (s *Store) ListEnabled(ctx context.Context) ([]Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM email_schedules WHERE enabled ORDER BY created_at`
	return s.querySchedules(ctx, query)
}

// MarkSent stamps the schedule's last_sent.
func (s *Store) MarkSent(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE email_schedules SET last_sent = $2, updated_at = now() WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("digest: mark sent failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (s *Store) querySchedules(ctx context.Context, query string, args ...any) ([]Schedule, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("digest: list schedules failed: %w", err)
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		var sched Schedule
		if err := rows.Scan(&sched.ID, &sched.LeadID, &sched.Time, &sched.Frequency, &sched.Enabled, &sched.LastSent, &sched.CreatedAt, &sched.UpdatedAt); err != nil {
			return nil, fmt.Errorf("digest: scan schedule failed: %w", err)
		}
		out = append(out, sched)
	}
	return out, rows.Err()
}

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var sched Schedule
	if err := row.Scan(&sched.ID, &sched.LeadID, &sched.Time, &sched.Frequency, &sched.Enabled, &sched.LastSent, &sched.CreatedAt, &sched.UpdatedAt); err != nil {
		return nil, err
	}
	return &sched, nil
}

// Insert appends one history row.
func (s *Store) Insert(ctx context.Context, entry *HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	query := `
		INSERT INTO email_history (id, lead_id, email, content)
		VALUES ($1, $2, $3, $4)
		RETURNING sent_at
	`
	if err := s.pool.QueryRow(ctx, query, entry.ID, entry.LeadID, entry.Email, entry.Content).Scan(&entry.SentAt); err != nil {
		return fmt.Errorf("digest: insert history failed: %w", err)
	}
	return nil
}

// SentToday reports whether the lead already received a digest within
// now's calendar day.
func (s *Store) SentToday(ctx context.Context, leadID string, now time.Time) (bool, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM email_history WHERE lead_id = $1 AND sent_at >= $2 AND sent_at < $3)`
	if err := s.pool.QueryRow(ctx, query, leadID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("digest: same-day lookup failed: %w", err)
	}
	return exists, nil
}

// List returns the full send history, most recent first, with lead
// name and company joined in.
func (s *Store) List(ctx context.Context) ([]HistoryEntry, error) {
	query := `
		SELECT h.id, h.lead_id, h.email, h.content, h.sent_at,
		       COALESCE(l.name, ''), COALESCE(l.company, '')
		FROM email_history h
		LEFT JOIN leads l ON l.id = h.lead_id
		ORDER BY h.sent_at DESC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("digest: list history failed: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.LeadID, &e.Email, &e.Content, &e.SentAt, &e.LeadName, &e.LeadCompany); err != nil {
			return nil, fmt.Errorf("digest: scan history failed: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

var (
	_ ScheduleStore = (*Store)(nil)
	_ HistoryStore  = (*Store)(nil)
)
