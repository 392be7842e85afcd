package api

import (
	"context"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
)

type contextKey string

const principalContextKey contextKey = "principal"

// PrincipalFromContext extracts the signed-in user from context
func PrincipalFromContext(ctx context.Context) *models.Principal {
	principal, ok := ctx.Value(principalContextKey).(*models.Principal)
	if !ok {
		return nil
	}
	return principal
}

// ContextWithPrincipal adds the signed-in user to context
func ContextWithPrincipal(ctx context.Context, principal *models.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}
