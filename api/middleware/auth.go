package middleware

import (
	"net/http"
	"strings"

	"github.com/stuvendor/stuvendor-backend/api/responses"
	"github.com/stuvendor/stuvendor-backend/internal/identity"
	pkgerrors "github.com/stuvendor/stuvendor-backend/pkg/errors"
	"github.com/stuvendor/stuvendor-backend/pkg/logger"
)

// Auth resolves the bearer token into a principal and seeds the request
// context. The resolver re-fetches the persisted account, so a token whose
// role claim no longer matches the database is resolved from the database.
func Auth(resolver *identity.Resolver, opts identity.ResolveOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			principal, err := resolver.Resolve(r.Context(), token, opts)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			if logg != nil {
				ctx = logg.WithAccountID(ctx, principal.AccountID().String())
				if vendorID, ok := principal.VendorID(); ok {
					ctx = logg.WithVendorID(ctx, vendorID.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
