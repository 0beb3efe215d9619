package auth

import (
	"errors"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

func (m *Middleware) validateToken(raw string) (User, error) {
	if !m.Enabled() {
		return User{}, errors.New("no verification key configured")
	}

	methods := []string{}
	if len(m.hmacKey) > 0 {
		methods = append(methods, "HS256")
	}
	if m.rsaKey != nil {
		methods = append(methods, "RS256")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods(methods),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(m.leeway),
	)

	var claims struct {
		jwt.RegisteredClaims
		Username string   `json:"username"`
		Roles    []string `json:"roles"`
		Role     string   `json:"role"`
	}

	tok, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); ok {
			return m.rsaKey, nil
		}
		return m.hmacKey, nil
	})
	if err != nil || !tok.Valid {
		return User{}, errors.New("invalid token")
	}

	if m.issuer != "" && claims.Issuer != m.issuer {
		return User{}, errors.New("bad issuer")
	}
	if m.audience != "" && !slices.Contains(claims.Audience, m.audience) {
		return User{}, errors.New("bad audience")
	}

	username := firstNonEmpty(claims.Username, claims.Subject)
	if username == "" {
		return User{}, errors.New("missing subject")
	}

	return User{
		Username:             username,
		AuthenticationSource: AuthenticationSource{Provider: firstNonEmpty(claims.Issuer, "jwt")},
		Role:                 Role{Name: firstNonEmpty(claims.Role, first(claims.Roles...))},
	}, nil
}
