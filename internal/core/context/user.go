// Package context provides request-scoped values extraction.
package context

import (
	"context"
	"slices"
)

// Roles known to the service.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RolePharmacist = "pharmacist"
	RoleCashier    = "cashier"
)

// UserContext contains the authenticated caller: who acts, for which organization, with which role.
type UserContext struct {
	UserID         string
	OrganizationID string
	Role           string
	SessionID      string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetOrganizationID returns the caller's organization or empty string.
// Only transport code reads it; domain operations take the organization as a parameter.
func GetOrganizationID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.OrganizationID
	}
	return ""
}

// HasAnyRole checks if the user holds one of roles. Admin passes every check.
func HasAnyRole(ctx context.Context, roles ...string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	if u.Role == RoleAdmin {
		return true
	}
	return slices.Contains(roles, u.Role)
}
