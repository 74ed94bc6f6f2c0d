package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Turn is one immutable message/response pair. LeadID is empty for anonymous
// pre-identification exchanges.
type Turn struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"leadId,omitempty"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnStore persists conversation turns.
type TurnStore interface {
	Insert(ctx context.Context, turn *Turn) error
	ListByLead(ctx context.Context, leadID string) ([]Turn, error)
}

// PgxPool is the pool subset the store needs; pgxmock satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the Postgres-backed TurnStore.
type Store struct {
	pool PgxPool
}

// NewStore initializes the conversation store.
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("conversation: pgx pool required")
	}
	return &Store{pool: pool}
}

// Insert appends one turn. Turns are append-only; the row is never updated.
func (s *Store) Insert(ctx context.Context, turn *Turn) error {
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	query := `
		INSERT INTO conversations (id, lead_id, message, response)
		VALUES ($1, NULLIF($2, ''), $3, $4)
		RETURNING created_at
	`
	if err := s.pool.QueryRow(ctx, query, turn.ID, turn.LeadID, turn.Message, turn.Response).Scan(&turn.Timestamp); err != nil {
		return fmt.Errorf("conversation: insert turn failed: %w", err)
	}
	return nil
}

// ListByLead returns a lead's turns in chronological order.
func (s *Store) ListByLead(ctx context.Context, leadID string) ([]Turn, error) {
	query := `
		SELECT id, COALESCE(lead_id::text, ''), message, response, created_at
		FROM conversations
		WHERE lead_id = $1
		ORDER BY created_at
	`
	rows, err := s.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("conversation: list turns failed: %w", err)
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.LeadID, &t.Message, &t.Response, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("conversation: scan turn failed: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// InMemoryStore is a TurnStore for tests and local runs.
type InMemoryStore struct {
	mu    sync.Mutex
	turns []Turn
	now   func() time.Time
}

// NewInMemoryStore creates an in-memory turn store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{now: func() time.Time { return time.Now().UTC() }}
}

// Insert appends one turn.
func (s *InMemoryStore) Insert(ctx context.Context, turn *Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	turn.Timestamp = s.now()
	s.turns = append(s.turns, *turn)
	return nil
}

// ListByLead returns a lead's turns in insertion order.
func (s *InMemoryStore) ListByLead(ctx context.Context, leadID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Turn
	for _, t := range s.turns {
		if t.LeadID == leadID && leadID != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// All returns every stored turn; test helper.
func (s *InMemoryStore) All() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.turns...)
}
