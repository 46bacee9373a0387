package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	"github.com/stuvendor/stuvendor-backend/pkg/enums"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS ledger_entries (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  order_id TEXT,
  reference TEXT,
  provider_transfer_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedEntry(t *testing.T, db *gorm.DB, vendorID uuid.UUID, amount int64, entryType enums.LedgerEntryType, status enums.LedgerEntryStatus, orderID *uuid.UUID, created time.Time) *models.LedgerEntry {
	t.Helper()

	entry := &models.LedgerEntry{
		ID:          uuid.New(),
		VendorID:    vendorID,
		AmountCents: amount,
		Type:        entryType,
		Status:      status,
		OrderID:     orderID,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, db.Create(entry).Error)
	return entry
}

func TestRepositoryListByOrder(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	vendorA := uuid.New()
	vendorB := uuid.New()
	orderID := uuid.New()
	otherOrder := uuid.New()
	now := time.Now().UTC()

	seedEntry(t, db, vendorB, 4000, enums.LedgerEntryTypeOrderSplit, enums.LedgerEntryStatusCompleted, &orderID, now.Add(time.Second))
	seedEntry(t, db, vendorA, 6000, enums.LedgerEntryTypeOrderSplit, enums.LedgerEntryStatusCompleted, &orderID, now)
	seedEntry(t, db, vendorA, 1000, enums.LedgerEntryTypeOrderSplit, enums.LedgerEntryStatusCompleted, &otherOrder, now)
	// A withdrawal referencing the order must not show up as a split.
	seedEntry(t, db, vendorA, 500, enums.LedgerEntryTypeWithdrawal, enums.LedgerEntryStatusPending, &orderID, now)

	entries, err := repo.ListByOrder(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, vendorA, entries[0].VendorID)
	assert.Equal(t, int64(6000), entries[0].AmountCents)
	assert.Equal(t, vendorB, entries[1].VendorID)
}

func TestRepositoryListByVendorClampsLimit(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	vendorID := uuid.New()
	now := time.Now().UTC()
	for i := 0; i < 60; i++ {
		seedEntry(t, db, vendorID, int64(i+1), enums.LedgerEntryTypeOrderSplit, enums.LedgerEntryStatusCompleted, nil, now.Add(time.Duration(i)*time.Second))
	}

	entries, err := repo.ListByVendor(context.Background(), vendorID, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 50)
	// Newest first.
	assert.Equal(t, int64(60), entries[0].AmountCents)

	entries, err = repo.ListByVendor(context.Background(), vendorID, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}

func TestRepositorySumAmount(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	vendorID := uuid.New()
	otherVendor := uuid.New()
	now := time.Now().UTC()

	seedEntry(t, db, vendorID, 6000, enums.LedgerEntryTypeOrderSplit, enums.LedgerEntryStatusCompleted, nil, now)
	seedEntry(t, db, vendorID, 4000, enums.LedgerEntryTypeOrderSplit, enums.LedgerEntryStatusCompleted, nil, now)
	seedEntry(t, db, vendorID, 9999, enums.LedgerEntryTypeOrderSplit, enums.LedgerEntryStatusFailed, nil, now)
	seedEntry(t, db, vendorID, 2500, enums.LedgerEntryTypeWithdrawal, enums.LedgerEntryStatusPending, nil, now)
	seedEntry(t, db, otherVendor, 7000, enums.LedgerEntryTypeOrderSplit, enums.LedgerEntryStatusCompleted, nil, now)

	earned, err := repo.SumAmount(context.Background(), vendorID, enums.LedgerEntryTypeOrderSplit, []enums.LedgerEntryStatus{enums.LedgerEntryStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), earned)

	held, err := repo.SumAmount(context.Background(), vendorID, enums.LedgerEntryTypeWithdrawal, []enums.LedgerEntryStatus{enums.LedgerEntryStatusPending, enums.LedgerEntryStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), held)

	empty, err := repo.SumAmount(context.Background(), uuid.New(), enums.LedgerEntryTypeOrderSplit, []enums.LedgerEntryStatus{enums.LedgerEntryStatusCompleted})
	require.NoError(t, err)
	assert.Zero(t, empty)
}

func TestRepositoryUpdateStatusGuard(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	vendorID := uuid.New()
	entry := seedEntry(t, db, vendorID, 2500, enums.LedgerEntryTypeWithdrawal, enums.LedgerEntryStatusPending, nil, time.Now().UTC())

	transferID := "984221"
	require.NoError(t, repo.UpdateStatus(context.Background(), entry.ID, enums.LedgerEntryStatusPending, enums.LedgerEntryStatusCompleted, &transferID))

	stored, err := repo.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.LedgerEntryStatusCompleted, stored.Status)
	require.NotNil(t, stored.ProviderTransferID)
	assert.Equal(t, transferID, *stored.ProviderTransferID)

	// The entry already left pending; a second transition must not apply.
	err = repo.UpdateStatus(context.Background(), entry.ID, enums.LedgerEntryStatusPending, enums.LedgerEntryStatusFailed, nil)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	stored, err = repo.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.LedgerEntryStatusCompleted, stored.Status)
}
