package logger

import (
	"net/http"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-fn/pkg/middleware/auth"
	"go.uber.org/zap"
)

// Middleware writes one access-log entry per request.
type Middleware struct {
	access *zap.Logger
	bodies allowlist
}

func NewMiddleware(access *zap.Logger) *Middleware {
	if access == nil {
		access = zap.NewNop()
	}
	return &Middleware{access: access, bodies: allowlist{paths: map[string]struct{}{}}}
}

func (m *Middleware) Middleware(ca *auth.Middleware) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)

			// Tap the body as the handler reads it; read limits and errors
			// stay with the handler.
			var tap *bodyTap
			if r.Body != nil && m.wantsBody(r) {
				tap = &bodyTap{ReadCloser: r.Body, limit: maxLoggedBody + 1}
				r.Body = tap
			}

			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}

			start := time.Now()
			defer func() {
				lat := time.Since(start)

				// nil-safe auth lookups
				isAuth := false
				username, role, provider := "", "", ""
				if ca != nil {
					isAuth = ca.IsAuthenticated(r.Context())
					u := ca.GetUser(r.Context())
					username = u.Username
					role = u.Role.Name
					provider = u.AuthenticationSource.Provider
				}

				log := m.access.With(
					zap.String("dateTime", start.UTC().Format(time.RFC1123)),
					zap.String("requestId", chimd.GetReqID(r.Context())),
					zap.String("httpScheme", scheme),
					zap.Bool("isAuthenticated", isAuth),
					zap.String("username", username),
					zap.String("role", role),
					zap.String("authenticationProvider", provider),
					zap.String("httpProto", r.Proto),
					zap.String("httpMethod", r.Method),
					zap.String("remoteAddr", r.RemoteAddr),
					zap.String("uri", r.URL.Path),
					zap.Duration("lat", lat),
					zap.Int("responseSize", ww.BytesWritten()),
					zap.Int("status", ww.Status()),
				)

				// Redact by default; allowlist small JSON bodies only.
				if body := tap.bytes(); len(body) > 0 && len(body) <= maxLoggedBody {
					log.Info("request", zap.ByteString("requestData", body))
				} else {
					log.Info("request")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
