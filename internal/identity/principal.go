package identity

import (
	"github.com/google/uuid"
	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
)

// Kind discriminates the two shapes a resolved request identity can take.
type Kind string

const (
	KindAccount Kind = "account"
	KindVendor  Kind = "vendor"
)

// Principal is the request-scoped identity produced by the resolver. It is a
// tagged union over Account and VendorProfile; consumers go through the
// accessors instead of probing the underlying shapes.
type Principal struct {
	kind    Kind
	account *models.Account
	vendor  *models.VendorProfile
}

// AccountPrincipal wraps a plain account identity.
func AccountPrincipal(account *models.Account) Principal {
	return Principal{kind: KindAccount, account: account}
}

// VendorPrincipal wraps a storefront identity.
func VendorPrincipal(vendor *models.VendorProfile) Principal {
	return Principal{kind: KindVendor, vendor: vendor}
}

// Kind reports which shape backs the principal.
func (p Principal) Kind() Kind {
	return p.kind
}

// AccountID returns the owning account id. For vendor principals this is the
// storefront's back-reference, never the storefront id itself.
func (p Principal) AccountID() uuid.UUID {
	switch p.kind {
	case KindVendor:
		if p.vendor != nil {
			return p.vendor.AccountID
		}
	case KindAccount:
		if p.account != nil {
			return p.account.ID
		}
	}
	return uuid.Nil
}

// VendorID returns the storefront id when the principal is a vendor.
func (p Principal) VendorID() (uuid.UUID, bool) {
	if p.kind == KindVendor && p.vendor != nil {
		return p.vendor.ID, true
	}
	return uuid.Nil, false
}

// Vendor exposes the underlying storefront when present.
func (p Principal) Vendor() (*models.VendorProfile, bool) {
	if p.kind == KindVendor && p.vendor != nil {
		return p.vendor, true
	}
	return nil, false
}

// Account exposes the underlying account when present.
func (p Principal) Account() (*models.Account, bool) {
	if p.kind == KindAccount && p.account != nil {
		return p.account, true
	}
	return nil, false
}
