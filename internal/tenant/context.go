package tenant

import (
	"context"
	"errors"
)

var ErrTenantNotFoundInContext = errors.New("tenant not found in context")

type tenantContextKey struct{}

// NoTenantName is the metric label used when a request carries no tenant.
const NoTenantName = "no_tenant"

// SaveTenantInContext stores the tenant information in the context.
func SaveTenantInContext(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, t)
}

// GetTenantFromContext retrieves the tenant information from the context.
func GetTenantFromContext(ctx context.Context) (*Tenant, error) {
	currentTenant, ok := ctx.Value(tenantContextKey{}).(*Tenant)
	if !ok || currentTenant == nil {
		return nil, ErrTenantNotFoundInContext
	}
	return currentTenant, nil
}

// MustGetTenantNameFromContext retrieves the tenant name from the context and
// defaults to NoTenantName when no tenant is bound.
func MustGetTenantNameFromContext(ctx context.Context) string {
	t, err := GetTenantFromContext(ctx)
	if err != nil || t == nil {
		return NoTenantName
	}
	return t.Name
}
