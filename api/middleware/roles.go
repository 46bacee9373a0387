package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/stuvendor/stuvendor-backend/api/responses"
	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	"github.com/stuvendor/stuvendor-backend/pkg/enums"
	pkgerrors "github.com/stuvendor/stuvendor-backend/pkg/errors"
	"github.com/stuvendor/stuvendor-backend/pkg/logger"
	"gorm.io/gorm"
)

// AccountFinder loads the persisted account for role checks.
type AccountFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// RequireRole gates a route on the account's persisted role. Whatever shape
// the principal has, it is normalized back to its owning account and the
// role is read from the database, never from the token claim.
func RequireRole(role enums.AccountRole, accounts AccountFinder, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || principal.AccountID() == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			account, err := accounts.FindByID(r.Context(), principal.AccountID())
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown account"))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account"))
				return
			}

			if account.Role != role {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
				return
			}

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithActorRole(ctx, string(account.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
