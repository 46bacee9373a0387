package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stuvendor/stuvendor-backend/pkg/auth"
	"github.com/stuvendor/stuvendor-backend/pkg/config"
	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	"github.com/stuvendor/stuvendor-backend/pkg/enums"
	pkgerrors "github.com/stuvendor/stuvendor-backend/pkg/errors"
	"gorm.io/gorm"
)

type accountFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

type vendorFinder interface {
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*models.VendorProfile, error)
}

// ResolveOptions tune how a token is turned into a principal for one request.
type ResolveOptions struct {
	// AllowMissingVendorProfile lets a vendor-role account through as an
	// account principal when no storefront exists yet. Only the profile
	// creation endpoint sets this.
	AllowMissingVendorProfile bool
}

// Resolver turns bearer tokens into request principals. The persisted account
// row is authoritative for role decisions; the role claim inside the token is
// never trusted on its own.
type Resolver struct {
	jwt      config.JWTConfig
	accounts accountFinder
	vendors  vendorFinder
}

// NewResolver wires an identity resolver over account and vendor lookups.
func NewResolver(jwt config.JWTConfig, accounts accountFinder, vendors vendorFinder) (*Resolver, error) {
	if accounts == nil || vendors == nil {
		return nil, fmt.Errorf("account and vendor lookups are required")
	}
	return &Resolver{jwt: jwt, accounts: accounts, vendors: vendors}, nil
}

// Resolve validates the raw token, re-fetches the account, and builds the
// principal for this request.
func (r *Resolver) Resolve(ctx context.Context, rawToken string, opts ResolveOptions) (Principal, error) {
	if rawToken == "" {
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing bearer token")
	}

	claims, err := auth.ParseAccessToken(r.jwt, rawToken)
	if err != nil {
		return Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}

	account, err := r.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown account")
		}
		return Principal{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
	}

	if account.Role != enums.AccountRoleVendor {
		return AccountPrincipal(account), nil
	}

	vendor, err := r.vendors.FindByAccountID(ctx, account.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if opts.AllowMissingVendorProfile {
				return AccountPrincipal(account), nil
			}
			return Principal{}, pkgerrors.New(pkgerrors.CodeForbidden, "vendor profile missing")
		}
		return Principal{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vendor profile")
	}

	return VendorPrincipal(vendor), nil
}
