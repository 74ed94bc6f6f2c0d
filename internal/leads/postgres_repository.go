package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const leadColumns = "id, name, email, phone, company, requirements, created_at, updated_at"

// Upsert merges contact data into a lead matched by normalized email or
// phone, or inserts a new row. Concurrent upserts for the same lead are
// last-write-wins on contact fields.
func (r *PostgresRepository) Upsert(ctx context.Context, info ContactInfo) (*Lead, error) {
	info = info.Sanitize()
	if !info.HasContact() {
		return nil, ErrMissingContact
	}

	existing, err := r.FindByContact(ctx, info.Email, info.Phone)
	if err != nil && err != ErrLeadNotFound {
		return nil, err
	}

	if existing != nil {
		if !existing.Merge(info) {
			return existing, nil
		}
		query := `
			UPDATE leads
			SET name = $2, email = $3, phone = $4, company = $5, requirements = $6, updated_at = now()
			WHERE id = $1
			RETURNING updated_at
		`
		if err := r.pool.QueryRow(ctx, query,
			existing.ID,
			existing.Name,
			existing.Email,
			existing.Phone,
			existing.Company,
			existing.Requirements,
		).Scan(&existing.UpdatedAt); err != nil {
			return nil, fmt.Errorf("leads: update failed: %w", err)
		}
		return existing, nil
	}

	id := uuid.New()
	query := `
		INSERT INTO leads (id, name, email, phone, company, requirements)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		info.Name,
		info.Email,
		info.Phone,
		info.Company,
		info.Requirements,
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Lead{
		ID:           id.String(),
		Name:         info.Name,
		Email:        info.Email,
		Phone:        info.Phone,
		Company:      info.Company,
		Requirements: info.Requirements,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

// GetByID fetches a lead by its identifier.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := fmt.Sprintf("SELECT %s FROM leads WHERE id = $1", leadColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// FindByContact fetches a lead by normalized email OR phone. Empty values
// are excluded from the match so two contact-less rows never collide.
func (r *PostgresRepository) FindByContact(ctx context.Context, email, phone string) (*Lead, error) {
	email = NormalizeEmail(email)
	phone = NormalizePhone(phone)
	if email == "" && phone == "" {
		return nil, ErrLeadNotFound
	}
	query := fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE (email <> '' AND email = $1) OR (phone <> '' AND phone = $2)
		LIMIT 1
	`, leadColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, email, phone))
}

// List returns all leads ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]*Lead, error) {
	query := fmt.Sprintf("SELECT %s FROM leads ORDER BY created_at", leadColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(
			&lead.ID,
			&lead.Name,
			&lead.Email,
			&lead.Phone,
			&lead.Company,
			&lead.Requirements,
			&lead.CreatedAt,
			&lead.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, &lead)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) scanOne(row pgx.Row) (*Lead, error) {
	var lead Lead
	if err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Company,
		&lead.Requirements,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return &lead, nil
}
