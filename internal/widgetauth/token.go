package widgetauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer mints widget session tokens. With a secret configured
// tokens are HS256 JWTs carrying the authorized domain; without one
// they fall back to opaque timestamp tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. TTL defaults to 24h.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	var key []byte
	if secret != "" {
		key = []byte(secret)
	}
	return &TokenIssuer{secret: key, ttl: ttl, now: time.Now}
}

type sessionClaims struct {
	Domain string `json:"domain"`
	jwt.RegisteredClaims
}

// Issue returns a session token for the authorized domain.
func (i *TokenIssuer) Issue(domain string) (string, error) {
	now := i.now()
	if i.secret == nil {
		return fmt.Sprintf("session-%d", now.Unix()), nil
	}
	claims := sessionClaims{
		Domain: domain,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "leadgate",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("widgetauth: token signing failed: %w", err)
	}
	return signed, nil
}

// IssueDev returns the synthetic token used for loopback hosts.
func (i *TokenIssuer) IssueDev() string {
	return fmt.Sprintf("dev-session-%d", i.now().UnixMilli())
}

// Verify parses and validates a JWT session token, returning its
// domain claim. Opaque fallback tokens cannot be verified.
func (i *TokenIssuer) Verify(token string) (string, error) {
	if i.secret == nil {
		return "", fmt.Errorf("widgetauth: no signing secret configured")
	}
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("widgetauth: unexpected signing method %s", t.Method.Alg())
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return "", fmt.Errorf("widgetauth: token verification failed: %w", err)
	}
	if !parsed.Valid {
		return "", fmt.Errorf("widgetauth: invalid token")
	}
	return claims.Domain, nil
}
