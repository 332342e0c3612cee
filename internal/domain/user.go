package domain

import "context"

// Role of an authenticated API user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

// User is an authenticated caller of the admin API. Account management
// itself lives outside this core; tokens are issued out of band.
type User struct {
	ID    string
	Email string
	Role  Role
}

type userContextKey struct{}

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext retrieves the authenticated user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*User)
	return u, ok
}
