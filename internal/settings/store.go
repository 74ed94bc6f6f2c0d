package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when no settings row exists yet.
var ErrNotFound = errors.New("settings not found")

// PgxPool is the pool subset the store needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists the company settings aggregate in Postgres.
type Store struct {
	pool PgxPool
}

// NewStore initializes the settings store.
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("settings: pgx pool required")
	}
	return &Store{pool: pool}
}

// Current returns the effective settings: the most recent row by creation time.
func (s *Store) Current(ctx context.Context) (*CompanySettings, error) {
	query := `
		SELECT id, company_name, description, services, case_studies, special_offers, prompt_template, created_at, updated_at
		FROM company_settings
		ORDER BY created_at DESC
		LIMIT 1
	`
	var cs CompanySettings
	if err := s.pool.QueryRow(ctx, query).Scan(
		&cs.ID,
		&cs.CompanyName,
		&cs.Description,
		&cs.Services,
		&cs.CaseStudies,
		&cs.SpecialOffers,
		&cs.PromptTemplate,
		&cs.CreatedAt,
		&cs.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("settings: select failed: %w", err)
	}
	return &cs, nil
}

// Save updates the existing settings row or creates the first one.
func (s *Store) Save(ctx context.Context, cs *CompanySettings) error {
	existing, err := s.Current(ctx)
	if err != nil && err != ErrNotFound {
		return err
	}

	if existing != nil {
		query := `
			UPDATE company_settings
			SET company_name = $2, description = $3, services = $4, case_studies = $5,
			    special_offers = $6, prompt_template = $7, updated_at = now()
			WHERE id = $1
		`
		if _, err := s.pool.Exec(ctx, query,
			existing.ID,
			cs.CompanyName,
			cs.Description,
			cs.Services,
			cs.CaseStudies,
			cs.SpecialOffers,
			cs.PromptTemplate,
		); err != nil {
			return fmt.Errorf("settings: update failed: %w", err)
		}
		cs.ID = existing.ID
		return nil
	}

	id := uuid.New()
	query := `
		INSERT INTO company_settings (id, company_name, description, services, case_studies, special_offers, prompt_template)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := s.pool.Exec(ctx, query,
		id,
		cs.CompanyName,
		cs.Description,
		cs.Services,
		cs.CaseStudies,
		cs.SpecialOffers,
		cs.PromptTemplate,
	); err != nil {
		return fmt.Errorf("settings: insert failed: %w", err)
	}
	cs.ID = id.String()
	return nil
}
