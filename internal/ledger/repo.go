package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	"github.com/stuvendor/stuvendor-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository handles ledger entry persistence. Entries are append-only;
// UpdateStatus is the only in-place mutation and it is guarded by the
// expected current status.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerEntry) error
	CreateAll(ctx context.Context, entries []models.LedgerEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, limit int) ([]models.LedgerEntry, error)
	SumAmount(ctx context.Context, vendorID uuid.UUID, entryType enums.LedgerEntryType, statuses []enums.LedgerEntryStatus) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.LedgerEntryStatus, providerTransferID *string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) CreateAll(ctx context.Context, entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND type = ?", orderID, enums.LedgerEntryTypeOrderSplit).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SumAmount(ctx context.Context, vendorID uuid.UUID, entryType enums.LedgerEntryType, statuses []enums.LedgerEntryStatus) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("vendor_id = ? AND type = ? AND status IN ?", vendorID, entryType, statuses).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// UpdateStatus moves an entry from one status to another. The guard on the
// current status makes lost transitions visible as gorm.ErrRecordNotFound
// instead of silently overwriting a concurrent write.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.LedgerEntryStatus, providerTransferID *string) error {
	updates := map[string]any{"status": to}
	if providerTransferID != nil {
		updates["provider_transfer_id"] = *providerTransferID
	}
	result := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
