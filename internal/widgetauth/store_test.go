package widgetauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestStoreFindActiveDomain(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := NewStore(mock)

	mock.ExpectQuery("SELECT .+ FROM websites").
		WithArgs("myshop.com").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "domain", "theme", "position", "is_active", "created_at",
		}).AddRow("site-1", "myshop.com", "dark", "", true, time.Now()))

	site, err := store.FindActiveDomain(context.Background(), "myshop.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if site.ID != "site-1" || site.Theme != "dark" {
		t.Errorf("site = %+v", site)
	}
	if cfg := site.Config(); cfg.Position != "bottom-right" {
		t.Errorf("empty position must default, got %q", cfg.Position)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestStoreUnknownDomain(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := NewStore(mock)

	mock.ExpectQuery("SELECT .+ FROM websites").
		WithArgs("ghost.com").
		WillReturnError(pgx.ErrNoRows)

	if _, err := store.FindActiveDomain(context.Background(), "ghost.com"); !errors.Is(err, ErrDomainNotAuthorized) {
		t.Fatalf("expected ErrDomainNotAuthorized, got %v", err)
	}
}
