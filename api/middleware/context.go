package middleware

import (
	"context"

	"github.com/rtavares/movelaria-backend/pkg/auth"
	"github.com/rtavares/movelaria-backend/pkg/enums"
)

type contextKey string

const ctxClaims contextKey = "claims"

// ClaimsFromContext returns the authenticated actor's claims, or nil when
// the request never passed the auth middleware.
func ClaimsFromContext(ctx context.Context) *auth.AccessTokenClaims {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxClaims).(*auth.AccessTokenClaims); ok {
		return v
	}
	return nil
}

// RoleFromContext returns the actor's role, empty when unauthenticated.
func RoleFromContext(ctx context.Context) enums.Role {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return ""
	}
	return claims.Role
}

// WithClaims injects the actor's claims into the context.
func WithClaims(ctx context.Context, claims *auth.AccessTokenClaims) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxClaims, claims)
}
