package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	"github.com/stuvendor/stuvendor-backend/pkg/enums"
	pkgerrors "github.com/stuvendor/stuvendor-backend/pkg/errors"
	"gorm.io/gorm"
)

// memRepo keeps entries in memory and implements the same sum semantics as
// the SQL repository.
type memRepo struct {
	entries []models.LedgerEntry
	sumErr  error
}

func (m *memRepo) WithTx(tx *gorm.DB) Repository { return m }

func (m *memRepo) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memRepo) CreateAll(ctx context.Context, entries []models.LedgerEntry) error {
	for i := range entries {
		if err := m.Create(ctx, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *memRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	for i := range m.entries {
		if m.entries[i].ID == id {
			entry := m.entries[i]
			return &entry, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, e := range m.entries {
		if e.OrderID != nil && *e.OrderID == orderID && e.Type == enums.LedgerEntryTypeOrderSplit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) ListByVendor(ctx context.Context, vendorID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, e := range m.entries {
		if e.VendorID == vendorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) SumAmount(ctx context.Context, vendorID uuid.UUID, entryType enums.LedgerEntryType, statuses []enums.LedgerEntryStatus) (int64, error) {
	if m.sumErr != nil {
		return 0, m.sumErr
	}
	var total int64
	for _, e := range m.entries {
		if e.VendorID != vendorID || e.Type != entryType {
			continue
		}
		for _, status := range statuses {
			if e.Status == status {
				total += e.AmountCents
				break
			}
		}
	}
	return total, nil
}

func (m *memRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.LedgerEntryStatus, providerTransferID *string) error {
	for i := range m.entries {
		if m.entries[i].ID == id && m.entries[i].Status == from {
			m.entries[i].Status = to
			if providerTransferID != nil {
				m.entries[i].ProviderTransferID = providerTransferID
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func seedServiceEntry(vendorID uuid.UUID, amount int64, entryType enums.LedgerEntryType, status enums.LedgerEntryStatus) models.LedgerEntry {
	return models.LedgerEntry{
		ID:          uuid.New(),
		VendorID:    vendorID,
		AmountCents: amount,
		Type:        entryType,
		Status:      status,
	}
}

func TestComputeBalanceCountsOnlyCompleted(t *testing.T) {
	vendorID := uuid.New()
	repo := &memRepo{entries: []models.LedgerEntry{
		seedServiceEntry(vendorID, 5000, enums.LedgerEntryTypeOrderSplit, enums.LedgerEntryStatusCompleted),
		seedServiceEntry(vendorID, 3000, enums.LedgerEntryTypeOrderSplit, enums.LedgerEntryStatusCompleted),
		seedServiceEntry(vendorID, 9999, enums.LedgerEntryTypeOrderSplit, enums.LedgerEntryStatusPending),
		seedServiceEntry(vendorID, 4242, enums.LedgerEntryTypeOrderSplit, enums.LedgerEntryStatusFailed),
		seedServiceEntry(vendorID, 2000, enums.LedgerEntryTypeWithdrawal, enums.LedgerEntryStatusCompleted),
		seedServiceEntry(vendorID, 8888, enums.LedgerEntryTypeWithdrawal, enums.LedgerEntryStatusFailed),
	}}

	svc, err := NewService(ServiceParams{Repo: repo})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	balance, err := svc.ComputeBalance(context.Background(), vendorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 6000 {
		t.Fatalf("expected balance 6000, got %d", balance)
	}
}

func TestComputeBalanceIgnoresOtherVendors(t *testing.T) {
	vendorID := uuid.New()
	other := uuid.New()
	repo := &memRepo{entries: []models.LedgerEntry{
		seedServiceEntry(vendorID, 1500, enums.LedgerEntryTypeOrderSplit, enums.LedgerEntryStatusCompleted),
		seedServiceEntry(other, 7000, enums.LedgerEntryTypeOrderSplit, enums.LedgerEntryStatusCompleted),
	}}

	svc, _ := NewService(ServiceParams{Repo: repo})
	balance, err := svc.ComputeBalance(context.Background(), vendorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 1500 {
		t.Fatalf("expected balance 1500, got %d", balance)
	}
}

func TestAvailableForWithdrawalReservesPending(t *testing.T) {
	vendorID := uuid.New()
	repo := &memRepo{entries: []models.LedgerEntry{
		seedServiceEntry(vendorID, 10000, enums.LedgerEntryTypeOrderSplit, enums.LedgerEntryStatusCompleted),
		seedServiceEntry(vendorID, 10000, enums.LedgerEntryTypeWithdrawal, enums.LedgerEntryStatusPending),
	}}

	svc, _ := NewService(ServiceParams{Repo: repo})

	balance, err := svc.ComputeBalance(context.Background(), vendorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 10000 {
		t.Fatalf("pending withdrawal must not reduce the reported balance, got %d", balance)
	}

	available, err := svc.AvailableForWithdrawal(context.Background(), nil, vendorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if available != 0 {
		t.Fatalf("pending withdrawal must reserve funds, got available %d", available)
	}
}

func TestComputeBalanceZeroForUnknownVendor(t *testing.T) {
	svc, _ := NewService(ServiceParams{Repo: &memRepo{}})
	balance, err := svc.ComputeBalance(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected zero balance, got %d", balance)
	}
}

func TestComputeBalanceLedgerUnavailable(t *testing.T) {
	repo := &memRepo{sumErr: context.DeadlineExceeded}
	svc, _ := NewService(ServiceParams{Repo: repo})
	_, err := svc.ComputeBalance(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error when ledger queries fail")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestComputeBalanceRequiresVendorID(t *testing.T) {
	svc, _ := NewService(ServiceParams{Repo: &memRepo{}})
	_, err := svc.ComputeBalance(context.Background(), uuid.Nil)
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
