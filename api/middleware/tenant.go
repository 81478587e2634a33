package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/quayline/stockdesk-backend/api/responses"
	"github.com/quayline/stockdesk-backend/internal/upstream"
	"github.com/quayline/stockdesk-backend/pkg/logger"
)

type merchantResolver interface {
	CurrentMerchant(ctx context.Context) (*upstream.Merchant, error)
}

// Tenant forwards the browser's session cookie to the upstream client
// and resolves the active merchant once per request. Every downstream
// handler reads the tenant from the context instead of re-fetching it.
func Tenant(resolver merchantResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := upstream.WithCredentials(r.Context(), r.Header.Get("Cookie"))

			merchant, err := resolver.CurrentMerchant(ctx)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			ctx = WithTenant(ctx, *merchant)
			if logg != nil {
				ctx = logg.WithTenantID(ctx, strconv.Itoa(merchant.ID))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
