package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/observability"
)

const SessionCookie = "sales_session"

// Session assigns every browser a random session id in a cookie and puts it
// on the request context. Regenerated datasets are keyed by this id.
func Session(cfg config.SecurityConfig, ttl time.Duration) Middleware {
	sameSite := http.SameSiteLaxMode
	if cfg.EnableCSRF {
		sameSite = http.SameSiteStrictMode
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				Secure:   cfg.SecureCookies,
				SameSite: sameSite,
			})

			ctx := observability.WithSessionID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
