package auth

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ProvideAuthentication builds the middleware from env:
// AUTH_JWT_SECRET (HS256) or AUTH_JWT_PUBLIC_KEY (PEM, RS256), AUTH_ISSUER,
// AUTH_AUDIENCE, AUTH_LEEWAY_SECONDS, AUTH_REQUIRED, AUTH_COOKIE_NAME,
// AUTH_DEV_BYPASS and ADMIN_ROLE_NAME.
func ProvideAuthentication() (*Middleware, error) {
	leeway := 60 * time.Second
	if v := strings.TrimSpace(os.Getenv("AUTH_LEEWAY_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			leeway = time.Duration(n) * time.Second
		}
	}

	cookie := strings.TrimSpace(os.Getenv("AUTH_COOKIE_NAME"))
	if cookie == "" {
		cookie = "assert"
	}

	m := &Middleware{
		adminRole:  os.Getenv("ADMIN_ROLE_NAME"),
		devBypass:  os.Getenv("AUTH_DEV_BYPASS") == "true",
		required:   os.Getenv("AUTH_REQUIRED") == "true",
		exempt:     map[string]struct{}{"/ping": {}},
		cookieName: cookie,
		issuer:     strings.TrimSpace(os.Getenv("AUTH_ISSUER")),
		audience:   strings.TrimSpace(os.Getenv("AUTH_AUDIENCE")),
		leeway:     leeway,
	}

	if s := os.Getenv("AUTH_JWT_SECRET"); s != "" {
		m.hmacKey = []byte(s)
	}
	if pem := strings.TrimSpace(os.Getenv("AUTH_JWT_PUBLIC_KEY")); pem != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, fmt.Errorf("AUTH_JWT_PUBLIC_KEY: %w", err)
		}
		m.rsaKey = key
	}
	// Required auth with nothing to verify against would let everyone in.
	if m.required && !m.Enabled() && !m.devBypass {
		return nil, errors.New("AUTH_REQUIRED needs AUTH_JWT_SECRET or AUTH_JWT_PUBLIC_KEY")
	}
	return m, nil
}
