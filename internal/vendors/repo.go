package vendors

import (
	"context"

	"github.com/google/uuid"
	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles vendor profile persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, profile *models.VendorProfile) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.VendorProfile, error)
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*models.VendorProfile, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.VendorProfile, error)
	UpdateBankDetails(ctx context.Context, id uuid.UUID, bankCode, accountNumber, accountName string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a vendors repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, profile *models.VendorProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.VendorProfile, error) {
	var profile models.VendorProfile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*models.VendorProfile, error) {
	var profile models.VendorProfile
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// LockByID loads a vendor profile under a row lock. Callers must run inside a
// transaction; the lock serializes concurrent withdrawal attempts per vendor.
func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.VendorProfile, error) {
	var profile models.VendorProfile
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) UpdateBankDetails(ctx context.Context, id uuid.UUID, bankCode, accountNumber, accountName string) error {
	return r.db.WithContext(ctx).
		Model(&models.VendorProfile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"bank_code":           bankCode,
			"bank_account_number": accountNumber,
			"bank_account_name":   accountName,
		}).Error
}
