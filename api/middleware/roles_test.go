package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stuvendor/stuvendor-backend/internal/identity"
	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	"github.com/stuvendor/stuvendor-backend/pkg/enums"
)

func TestRequireRoleWithoutPrincipal(t *testing.T) {
	accounts := &stubAccounts{byID: map[uuid.UUID]*models.Account{}}
	handler := RequireRole(enums.AccountRoleVendor, accounts, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

// A token can claim any role; the gate only trusts the persisted account row.
func TestRequireRoleRejectsForgedRoleClaim(t *testing.T) {
	cfg := testJWTConfig()
	accountID := uuid.New()
	accounts := &stubAccounts{byID: map[uuid.UUID]*models.Account{
		accountID: {ID: accountID, Role: enums.AccountRoleCustomer},
	}}
	resolver := newTestResolver(t, cfg, accounts,
		&stubVendors{byAccount: map[uuid.UUID]*models.VendorProfile{}},
	)

	chain := Auth(resolver, identity.ResolveOptions{}, nil)(
		RequireRole(enums.AccountRoleVendor, accounts, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})),
	)

	// The claim says vendor, the database says customer.
	forged := mintTestToken(t, cfg, accountID, enums.AccountRoleVendor)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp := httptest.NewRecorder()
	chain.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRequireRolePassesMatchingRole(t *testing.T) {
	cfg := testJWTConfig()
	accountID := uuid.New()
	vendorID := uuid.New()
	accounts := &stubAccounts{byID: map[uuid.UUID]*models.Account{
		accountID: {ID: accountID, Role: enums.AccountRoleVendor},
	}}
	resolver := newTestResolver(t, cfg, accounts,
		&stubVendors{byAccount: map[uuid.UUID]*models.VendorProfile{
			accountID: {ID: vendorID, AccountID: accountID, BusinessName: "Ada's Audio"},
		}},
	)

	chain := Auth(resolver, identity.ResolveOptions{}, nil)(
		RequireRole(enums.AccountRoleVendor, accounts, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, cfg, accountID, enums.AccountRoleVendor))
	resp := httptest.NewRecorder()
	chain.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRequireRoleAccountDeletedAfterAuth(t *testing.T) {
	accountID := uuid.New()
	principal := identity.AccountPrincipal(&models.Account{ID: accountID, Role: enums.AccountRoleVendor})

	// The gate re-fetches the account, so a deletion after token issuance
	// turns into 401 even with a principal in context.
	accounts := &stubAccounts{byID: map[uuid.UUID]*models.Account{}}
	handler := RequireRole(enums.AccountRoleVendor, accounts, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), principal))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
