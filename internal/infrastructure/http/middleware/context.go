package middleware

import (
	"context"

	"github.com/latchauth/latch/internal/domain"
)

type contextKey string

const tenantContextKey contextKey = "tenant"

// WithTenant injects the tenant into the context.
func WithTenant(ctx context.Context, tenant *domain.Tenant) context.Context {
	return context.WithValue(ctx, tenantContextKey, tenant)
}

// TenantFromContext returns the tenant from the context, or nil.
func TenantFromContext(ctx context.Context) *domain.Tenant {
	v := ctx.Value(tenantContextKey)
	if v == nil {
		return nil
	}
	t, _ := v.(*domain.Tenant)
	return t
}

const authContextKey contextKey = "auth"

type authContext struct {
	tenantID string
	userID   string
}

// WithAuth injects the validated token's tenant and user IDs into the context.
func WithAuth(ctx context.Context, tenantID, userID string) context.Context {
	return context.WithValue(ctx, authContextKey, authContext{tenantID: tenantID, userID: userID})
}

// AuthFromContext returns the validated tenant and user IDs, or empty strings.
func AuthFromContext(ctx context.Context) (tenantID, userID string) {
	v := ctx.Value(authContextKey)
	if v == nil {
		return "", ""
	}
	a, _ := v.(authContext)
	return a.tenantID, a.userID
}
