package widgetauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const sessionKeyPrefix = "widget_session:"

// SessionStore keeps issued tokens in Redis so later widget calls can
// be verified against them. All methods are nil-safe; a nil store
// means session tracking is disabled.
type SessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewSessionStore creates a session store, or nil when no Redis
// client is configured.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("leadgate.internal.widgetauth.sessions"),
	}
}

// Save records a token for its domain.
func (s *SessionStore) Save(ctx context.Context, token, domain string) error {
	if s == nil || s.redis == nil {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "widgetauth.save_session")
	defer span.End()

	if err := s.redis.Set(ctx, sessionKeyPrefix+token, domain, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("widgetauth: session save failed: %w", err)
	}
	return nil
}

// Verify returns the domain a token was issued for. Synthetic dev
// tokens pass without a stored session.
func (s *SessionStore) Verify(ctx context.Context, token string) (string, error) {
	if s == nil || s.redis == nil {
		return "", nil
	}
	if token == "" {
		return "", fmt.Errorf("widgetauth: missing session token")
	}
	if strings.HasPrefix(token, "dev-session-") {
		return "localhost", nil
	}
	ctx, span := s.tracer.Start(ctx, "widgetauth.verify_session")
	defer span.End()

	domain, err := s.redis.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("widgetauth: unknown or expired session")
	}
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("widgetauth: session lookup failed: %w", err)
	}
	return domain, nil
}
