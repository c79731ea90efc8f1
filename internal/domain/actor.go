package domain

import (
	"slices"
	"time"
)

// RoleAdmin is the role code that may run lifecycle transitions.
const RoleAdmin = "admin"

// Actor is the authenticated caller, as resolved from a bearer token.
type Actor struct {
	UserID string
	Email  string
	Roles  []string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return slices.Contains(a.Roles, RoleAdmin)
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the actor it was issued to.
type TokenVerifier interface {
	Verify(token string) (Actor, error)
}
