package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stuvendor/stuvendor-backend/internal/identity"
	"github.com/stuvendor/stuvendor-backend/internal/ledger"
	pkgAuth "github.com/stuvendor/stuvendor-backend/pkg/auth"
	"github.com/stuvendor/stuvendor-backend/pkg/config"
	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	"github.com/stuvendor/stuvendor-backend/pkg/enums"
	"github.com/stuvendor/stuvendor-backend/pkg/logger"
	"github.com/stuvendor/stuvendor-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAccounts struct {
	byID map[uuid.UUID]*models.Account
}

func (s *stubAccounts) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if account, ok := s.byID[id]; ok {
		return account, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubVendorProfiles struct {
	byAccount map[uuid.UUID]*models.VendorProfile
}

func (s *stubVendorProfiles) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*models.VendorProfile, error) {
	if profile, ok := s.byAccount[accountID]; ok {
		return profile, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubLedgerRepo struct {
	sums map[enums.LedgerEntryType]int64
}

func (s *stubLedgerRepo) WithTx(tx *gorm.DB) ledger.Repository {
	return s
}

func (s *stubLedgerRepo) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return nil
}

func (s *stubLedgerRepo) CreateAll(ctx context.Context, entries []models.LedgerEntry) error {
	return nil
}

func (s *stubLedgerRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLedgerRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	return nil, nil
}

func (s *stubLedgerRepo) ListByVendor(ctx context.Context, vendorID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	return nil, nil
}

func (s *stubLedgerRepo) SumAmount(ctx context.Context, vendorID uuid.UUID, entryType enums.LedgerEntryType, statuses []enums.LedgerEntryStatus) (int64, error) {
	return s.sums[entryType], nil
}

func (s *stubLedgerRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.LedgerEntryStatus, providerTransferID *string) error {
	return nil
}

type routerFixture struct {
	router    http.Handler
	cfg       *config.Config
	accountID uuid.UUID
	vendorID  uuid.UUID
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "stuvendor-test",
			ExpirationMinutes: 60,
		},
	}

	vendorAccountID := uuid.New()
	vendorID := uuid.New()
	customerAccountID := customerID

	accounts := &stubAccounts{byID: map[uuid.UUID]*models.Account{
		vendorAccountID:   {ID: vendorAccountID, Role: enums.AccountRoleVendor},
		customerAccountID: {ID: customerAccountID, Role: enums.AccountRoleCustomer},
	}}
	vendorProfiles := &stubVendorProfiles{byAccount: map[uuid.UUID]*models.VendorProfile{
		vendorAccountID: {ID: vendorID, AccountID: vendorAccountID, BusinessName: "Ada's Audio"},
	}}

	resolver, err := identity.NewResolver(cfg.JWT, accounts, vendorProfiles)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	ledgerService, err := ledger.NewService(ledger.ServiceParams{Repo: &stubLedgerRepo{
		sums: map[enums.LedgerEntryType]int64{
			enums.LedgerEntryTypeOrderSplit: 6000,
		},
	}})
	if err != nil {
		t.Fatalf("new ledger service: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	router := NewRouter(Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       stubPinger{},
		Redis:    (*redis.Client)(nil),
		Resolver: resolver,
		Accounts: accounts,
		Ledger:   ledgerService,
	})

	return &routerFixture{
		router:    router,
		cfg:       cfg,
		accountID: vendorAccountID,
		vendorID:  vendorID,
	}
}

// Shared so the fixture can seed both roles deterministically.
var customerID = uuid.New()

func buildToken(t *testing.T, cfg *config.Config, accountID uuid.UUID, role enums.AccountRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		AccountID: accountID,
		Role:      role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	fx := newRouterFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	fx.router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-StuVendor-Env") != "test" {
		t.Fatalf("expected env header, got %q", resp.Header().Get("X-StuVendor-Env"))
	}
}

func TestVendorGroupRejectsMissingJWT(t *testing.T) {
	fx := newRouterFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/balance", nil)
	resp := httptest.NewRecorder()
	fx.router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestVendorGroupRejectsCustomerRole(t *testing.T) {
	fx := newRouterFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/balance", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, fx.cfg, customerID, enums.AccountRoleCustomer))
	resp := httptest.NewRecorder()
	fx.router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}
}

func TestVendorBalanceReturnsLedgerBalance(t *testing.T) {
	fx := newRouterFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/balance", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, fx.cfg, fx.accountID, enums.AccountRoleVendor))
	resp := httptest.NewRecorder()
	fx.router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Data struct {
			VendorID     string `json:"vendor_id"`
			BalanceCents int64  `json:"balance_cents"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.VendorID != fx.vendorID.String() {
		t.Fatalf("expected vendor %s got %s", fx.vendorID, payload.Data.VendorID)
	}
	if payload.Data.BalanceCents != 6000 {
		t.Fatalf("expected balance 6000 got %d", payload.Data.BalanceCents)
	}
}

func TestWithdrawRequiresIdempotencyKey(t *testing.T) {
	fx := newRouterFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vendor/withdraw", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, fx.cfg, fx.accountID, enums.AccountRoleVendor))
	resp := httptest.NewRecorder()
	fx.router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key got %d", resp.Code)
	}
}

func TestAdminGroupRejectsVendorRole(t *testing.T) {
	fx := newRouterFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/"+uuid.NewString()+"/complete", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, fx.cfg, fx.accountID, enums.AccountRoleVendor))
	resp := httptest.NewRecorder()
	fx.router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for vendor on admin route got %d", resp.Code)
	}
}
