package auth

import (
	"context"
	"strings"
)

// Role is the privilege level carried in a token.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// roleOrder lists roles from least to most privileged.
var roleOrder = []Role{RoleViewer, RoleOperator, RoleAdmin}

// NormalizeRole parses a role claim, ignoring case and surrounding space.
func NormalizeRole(value string) (Role, bool) {
	candidate := Role(strings.ToLower(strings.TrimSpace(value)))
	if rankOf(candidate) == 0 {
		return "", false
	}
	return candidate, true
}

// RoleAtLeast reports whether role grants everything required grants.
func RoleAtLeast(role, required Role) bool {
	rank := rankOf(role)
	return rank > 0 && rank >= rankOf(required)
}

func rankOf(role Role) int {
	for i, known := range roleOrder {
		if role == known {
			return i + 1
		}
	}
	return 0
}

// Identity is the authenticated caller of a request.
type Identity struct {
	Subject string
	Role    Role
}

type identityKey struct{}

// WithIdentity attaches the caller to ctx.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the caller, if the request was authenticated.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}
