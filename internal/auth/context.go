package auth

import (
	"context"
	"slices"
)

type contextKey struct{}

// AuthContext carries the verified identity of the requester.
type AuthContext struct {
	UserID int64
	Roles  []string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return slices.Contains(ac.Roles, RoleAdmin)
}
