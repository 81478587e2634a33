package middleware

import (
	"context"

	"github.com/quayline/stockdesk-backend/internal/upstream"
)

type contextKey string

const ctxTenant contextKey = "tenant"

// WithTenant injects the resolved merchant into the context.
func WithTenant(ctx context.Context, tenant upstream.Merchant) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTenant, tenant)
}

// TenantFromContext returns the merchant resolved for this request.
func TenantFromContext(ctx context.Context) (upstream.Merchant, bool) {
	if ctx == nil {
		return upstream.Merchant{}, false
	}
	tenant, ok := ctx.Value(ctxTenant).(upstream.Merchant)
	return tenant, ok
}
