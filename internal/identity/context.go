package identity

import "context"

type ctxKey string

const (
	userKey ctxKey = "afya.user_id"
	roleKey ctxKey = "afya.role"
)

// Roles recognized in access tokens.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// WithUser stores the authenticated user id and role in context.
func WithUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, userKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// UserIDFromContext extracts the user id if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(userKey)
	if val == nil {
		return "", false
	}
	userID, ok := val.(string)
	return userID, ok && userID != ""
}

// RoleFromContext extracts the role if present.
func RoleFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(roleKey)
	if val == nil {
		return "", false
	}
	role, ok := val.(string)
	return role, ok && role != ""
}
