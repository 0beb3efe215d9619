package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{ name string }

var userCtxKey = &contextKey{"user"}

func (m *Middleware) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Dev bypass for local testing (NEVER enable in prod)
			if m.devBypass {
				if u := devUserFromHeaders(r); u.Username != "" {
					next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
					return
				}
			}

			if raw := m.tokenFrom(r); raw != "" && m.Enabled() {
				u, err := m.validateToken(raw)
				if err != nil {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
				return
			}

			if m.required {
				if _, ok := m.exempt[r.URL.Path]; !ok {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

// WithUser stores u in ctx.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userCtxKey, u)
}
