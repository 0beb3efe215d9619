package auth

import "context"

func userFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userCtxKey).(User)
	return u, ok
}

// GetUser returns the caller, or the zero User when anonymous.
func (m *Middleware) GetUser(ctx context.Context) User {
	u, _ := userFrom(ctx)
	return u
}

// IsAdmin reports whether the caller holds ADMIN_ROLE_NAME. With no admin
// role configured nobody is an admin.
func (m *Middleware) IsAdmin(ctx context.Context) bool {
	u, ok := userFrom(ctx)
	return ok && m.adminRole != "" && u.Role.Name == m.adminRole
}

func (m *Middleware) IsAuthenticated(ctx context.Context) bool {
	u, ok := userFrom(ctx)
	return ok && u.Username != ""
}
