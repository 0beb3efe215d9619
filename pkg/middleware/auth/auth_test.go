package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newAuth(t *testing.T, env map[string]string) *Middleware {
	t.Helper()
	for _, k := range []string{"AUTH_JWT_SECRET", "AUTH_JWT_PUBLIC_KEY", "AUTH_ISSUER", "AUTH_AUDIENCE",
		"AUTH_REQUIRED", "AUTH_DEV_BYPASS", "ADMIN_ROLE_NAME", "AUTH_COOKIE_NAME", "AUTH_LEEWAY_SECONDS"} {
		t.Setenv(k, env[k])
	}
	m, err := ProvideAuthentication()
	require.NoError(t, err)
	return m
}

// serve runs r through m and reports the status and the user seen downstream.
func serve(m *Middleware, r *http.Request) (int, User) {
	var seen User
	h := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = m.GetUser(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec.Code, seen
}

func TestAnonymousWhenUnconfigured(t *testing.T) {
	m := newAuth(t, nil)
	assert.False(t, m.Enabled())

	r := httptest.NewRequest(http.MethodGet, "/echo", nil)
	r.Header.Set("Authorization", "Bearer whatever")
	code, u := serve(m, r)
	assert.Equal(t, http.StatusNoContent, code)
	assert.Empty(t, u.Username)
}

func TestValidBearerToken(t *testing.T) {
	m := newAuth(t, map[string]string{"AUTH_JWT_SECRET": secret, "AUTH_ISSUER": "idp", "ADMIN_ROLE_NAME": "admin"})
	tok := sign(t, jwt.MapClaims{
		"sub":  "alice",
		"role": "admin",
		"iss":  "idp",
		"exp":  time.Now().Add(time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	})
	r := httptest.NewRequest(http.MethodGet, "/echo", nil)
	r.Header.Set("Authorization", "Bearer "+tok)

	code, u := serve(m, r)
	assert.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "admin", u.Role.Name)
	assert.Equal(t, "idp", u.AuthenticationSource.Provider)
	assert.True(t, m.IsAdmin(WithUser(r.Context(), u)))
}

func TestTokenFromCookie(t *testing.T) {
	m := newAuth(t, map[string]string{"AUTH_JWT_SECRET": secret})
	tok := sign(t, jwt.MapClaims{"username": "bob", "roles": []string{"reader"}})
	r := httptest.NewRequest(http.MethodGet, "/echo", nil)
	r.AddCookie(&http.Cookie{Name: "assert", Value: tok})

	code, u := serve(m, r)
	assert.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, "bob", u.Username)
	assert.Equal(t, "reader", u.Role.Name)
}

func TestRejectsBadTokens(t *testing.T) {
	m := newAuth(t, map[string]string{"AUTH_JWT_SECRET": secret, "AUTH_AUDIENCE": "fn"})

	for name, tok := range map[string]string{
		"garbage":  "not.a.jwt",
		"expired":  sign(t, jwt.MapClaims{"sub": "a", "aud": "fn", "exp": time.Now().Add(-time.Hour).Unix()}),
		"audience": sign(t, jwt.MapClaims{"sub": "a", "aud": "other"}),
		"subject":  sign(t, jwt.MapClaims{"aud": "fn"}),
	} {
		r := httptest.NewRequest(http.MethodGet, "/echo", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		code, _ := serve(m, r)
		assert.Equal(t, http.StatusUnauthorized, code, name)
	}
}

func TestRequiredAuth(t *testing.T) {
	m := newAuth(t, map[string]string{"AUTH_JWT_SECRET": secret, "AUTH_REQUIRED": "true"})
	m.Exempt("/metrics")

	code, _ := serve(m, httptest.NewRequest(http.MethodGet, "/echo", nil))
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = serve(m, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = serve(m, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNoContent, code)
}

func TestDevBypass(t *testing.T) {
	m := newAuth(t, map[string]string{"AUTH_DEV_BYPASS": "true"})
	r := httptest.NewRequest(http.MethodGet, "/echo", nil)
	r.Header.Set("X-Dev-User", "dev")
	r.Header.Set("X-Dev-Role", "tester")

	_, u := serve(m, r)
	assert.Equal(t, "dev", u.Username)
	assert.Equal(t, "tester", u.Role.Name)
}

func TestRequiredWithoutKeyIsRejected(t *testing.T) {
	for _, k := range []string{"AUTH_JWT_SECRET", "AUTH_JWT_PUBLIC_KEY", "AUTH_DEV_BYPASS"} {
		t.Setenv(k, "")
	}
	t.Setenv("AUTH_REQUIRED", "true")
	_, err := ProvideAuthentication()
	assert.ErrorContains(t, err, "AUTH_REQUIRED")

	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	_, err = ProvideAuthentication()
	assert.NoError(t, err)
}

func TestRequiredDevBypassNeedsDevUser(t *testing.T) {
	m := newAuth(t, map[string]string{"AUTH_REQUIRED": "true", "AUTH_DEV_BYPASS": "true"})

	code, _ := serve(m, httptest.NewRequest(http.MethodGet, "/echo", nil))
	assert.Equal(t, http.StatusUnauthorized, code)

	r := httptest.NewRequest(http.MethodGet, "/echo", nil)
	r.Header.Set("X-Dev-User", "dev")
	code, u := serve(m, r)
	assert.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, "dev", u.Username)
}

func TestBadPublicKey(t *testing.T) {
	t.Setenv("AUTH_JWT_PUBLIC_KEY", "not pem")
	_, err := ProvideAuthentication()
	assert.ErrorContains(t, err, "AUTH_JWT_PUBLIC_KEY")
}
