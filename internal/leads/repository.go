package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage. It owns de-duplication
// and merge semantics: Upsert finds an existing lead by normalized email or
// phone, merges additively into it, or creates a new lead when none matches.
type Repository interface {
	Upsert(ctx context.Context, info ContactInfo) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	FindByContact(ctx context.Context, email, phone string) (*Lead, error)
	List(ctx context.Context) ([]*Lead, error)
}

// InMemoryRepository is an in-memory Repository used in tests and local runs.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
	now   func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Upsert merges contact data into a matching lead or creates a new one.
func (r *InMemoryRepository) Upsert(ctx context.Context, info ContactInfo) (*Lead, error) {
	info = info.Sanitize()
	if !info.HasContact() {
		return nil, ErrMissingContact
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.findLocked(info.Email, info.Phone); existing != nil {
		if existing.Merge(info) {
			existing.UpdatedAt = r.now()
		}
		cp := *existing
		return &cp, nil
	}

	now := r.now()
	lead := &Lead{
		ID:           uuid.New().String(),
		Name:         info.Name,
		Email:        info.Email,
		Phone:        info.Phone,
		Company:      info.Company,
		Requirements: info.Requirements,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.leads[lead.ID] = lead
	cp := *lead
	return &cp, nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	cp := *lead
	return &cp, nil
}

// FindByContact looks a lead up by normalized email OR phone. Empty values
// never participate in the match.
func (r *InMemoryRepository) FindByContact(ctx context.Context, email, phone string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead := r.findLocked(NormalizeEmail(email), NormalizePhone(phone))
	if lead == nil {
		return nil, ErrLeadNotFound
	}
	cp := *lead
	return &cp, nil
}

// List returns all leads ordered by creation time.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		cp := *lead
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryRepository) findLocked(email, phone string) *Lead {
	for _, lead := range r.leads {
		if email != "" && lead.Email == email {
			return lead
		}
		if phone != "" && lead.Phone == phone {
			return lead
		}
	}
	return nil
}
