package auth

import (
	"crypto/rsa"
	"time"
)

// Middleware verifies bearer (or cookie) JWTs and stores the caller in the
// request context. With no key configured every request is anonymous.
type Middleware struct {
	adminRole string
	devBypass bool
	required  bool
	exempt    map[string]struct{}

	cookieName string
	hmacKey    []byte
	rsaKey     *rsa.PublicKey
	issuer     string
	audience   string
	leeway     time.Duration
}

// Enabled reports whether a verification key is configured.
func (m *Middleware) Enabled() bool {
	return m != nil && (len(m.hmacKey) > 0 || m.rsaKey != nil)
}

// Exempt lets paths through even when authentication is required.
func (m *Middleware) Exempt(paths ...string) {
	if m.exempt == nil {
		m.exempt = make(map[string]struct{}, len(paths))
	}
	for _, p := range paths {
		m.exempt[p] = struct{}{}
	}
}
