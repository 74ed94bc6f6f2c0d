package widgetauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDomainNotAuthorized is returned when the domain is unknown or
// deactivated.
var ErrDomainNotAuthorized = errors.New("widgetauth: domain not authorized")

// DomainRegistry resolves normalized domains to registered websites.
type DomainRegistry interface {
	FindActiveDomain(ctx context.Context, domain string) (*Website, error)
}

// PgxPool is the pool subset the store needs; pgxmock satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the Postgres-backed website registry.
type Store struct {
	pool PgxPool
}

// NewStore initializes the registry store.
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("widgetauth: pgx pool required")
	}
	return &Store{pool: pool}
}

// FindActiveDomain looks up an active registration for the domain.
// Inactive registrations are treated the same as unknown ones.
func (s *Store) FindActiveDomain(ctx context.Context, domain string) (*Website, error) {
	query := `
		SELECT id, domain, COALESCE(theme, ''), COALESCE(position, ''), is_active, created_at
		FROM websites
		WHERE domain = $1 AND is_active
		LIMIT 1
	`
	var site Website
	err := s.pool.QueryRow(ctx, query, domain).Scan(
		&site.ID, &site.Domain, &site.Theme, &site.Position, &site.IsActive, &site.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDomainNotAuthorized
	}
	if err != nil {
		return nil, fmt.Errorf("widgetauth: domain lookup failed: %w", err)
	}
	return &site, nil
}

var _ DomainRegistry = (*Store)(nil)
