package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/stuvendor/stuvendor-backend/internal/identity"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// WithPrincipal injects the resolved principal into the context.
func WithPrincipal(ctx context.Context, principal identity.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, principal)
}

// PrincipalFromContext returns the resolved principal for this request.
func PrincipalFromContext(ctx context.Context) (identity.Principal, bool) {
	if ctx == nil {
		return identity.Principal{}, false
	}
	principal, ok := ctx.Value(ctxPrincipal).(identity.Principal)
	return principal, ok
}

// AccountIDFromContext returns the owning account id of the request principal.
func AccountIDFromContext(ctx context.Context) uuid.UUID {
	if principal, ok := PrincipalFromContext(ctx); ok {
		return principal.AccountID()
	}
	return uuid.Nil
}

// VendorIDFromContext returns the storefront id when the principal is a vendor.
func VendorIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if principal, ok := PrincipalFromContext(ctx); ok {
		return principal.VendorID()
	}
	return uuid.Nil, false
}
