// Package widgetauth gates the embeddable chat widget by origin
// domain and issues the session tokens it carries on later calls.
package widgetauth

import (
	"strings"
	"time"
)

// Website is one registered widget host.
type Website struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain"`
	Theme     string    `json:"theme"`
	Position  string    `json:"position"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// WidgetConfig is the display configuration returned to the widget.
type WidgetConfig struct {
	Theme    string `json:"theme"`
	Position string `json:"position"`
}

const (
	defaultTheme    = "light"
	defaultPosition = "bottom-right"
)

// Config returns the site's display config with defaults applied.
func (w *Website) Config() WidgetConfig {
	cfg := WidgetConfig{Theme: w.Theme, Position: w.Position}
	if cfg.Theme == "" {
		cfg.Theme = defaultTheme
	}
	if cfg.Position == "" {
		cfg.Position = defaultPosition
	}
	return cfg
}

// NormalizeDomain strips the scheme and port and lower-cases the
// remainder, so registry lookups are exact-match.
func NormalizeDomain(domain string) string {
	d := strings.TrimSpace(domain)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.LastIndex(d, ":"); i >= 0 {
		if port := d[i+1:]; port != "" && isDigits(port) {
			d = d[:i]
		}
	}
	return strings.ToLower(d)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isLoopback reports whether the normalized domain is a local
// development host.
func isLoopback(domain string) bool {
	return strings.Contains(domain, "localhost") || strings.Contains(domain, "127.0.0.1")
}
