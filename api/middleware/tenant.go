package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/vitrine-backend/api/responses"
	"github.com/angelmondragon/vitrine-backend/internal/stores"
	"github.com/angelmondragon/vitrine-backend/pkg/logger"
)

const forwardedHostHeader = "X-Forwarded-Host"

type hostResolver interface {
	ResolveHost(ctx context.Context, host string) (*stores.StoreDTO, error)
}

// Tenant resolves the storefront store from the request host and scopes the
// request to it. Custom domains and platform subdomains are both accepted.
// trustForwarded must only be set behind a proxy that overwrites
// X-Forwarded-Host; otherwise any client could pick the store.
func Tenant(resolver hostResolver, trustForwarded bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store, err := resolver.ResolveHost(r.Context(), requestHost(r, trustForwarded))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithStoreID(r.Context(), store.ID.String())
			if logg != nil {
				ctx = logg.WithStoreID(ctx, store.ID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestHost prefers the first forwarded host when the edge proxy is trusted.
func requestHost(r *http.Request, trustForwarded bool) string {
	if fwd := strings.TrimSpace(r.Header.Get(forwardedHostHeader)); trustForwarded && fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	return r.Host
}
