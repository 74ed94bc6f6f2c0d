package widgetauth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vectorsoft/leadgate/pkg/logging"
)

// RequireSession returns middleware that checks the Bearer session
// token against the session store. A nil store disables enforcement
// and the middleware passes everything through.
func RequireSession(sessions *SessionStore, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sessions == nil {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			domain, err := sessions.Verify(r.Context(), token)
			if err != nil {
				logger.Info("widget session rejected", "error", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Invalid session"})
				return
			}
			if domain != "" {
				r.Header.Set("X-Widget-Domain", domain)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
