package models

import (
	"time"

	"github.com/google/uuid"
)

// VendorProfile is the storefront extension of a vendor-role Account. Its id
// is the storefront identifier and is distinct from the owning Account id.
type VendorProfile struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID         uuid.UUID `gorm:"column:account_id;type:uuid;not null;uniqueIndex"`
	BusinessName      string    `gorm:"column:business_name;not null"`
	BankCode          *string   `gorm:"column:bank_code"`
	BankAccountNumber *string   `gorm:"column:bank_account_number"`
	BankAccountName   *string   `gorm:"column:bank_account_name"`
	Address           *string   `gorm:"column:address"`
	Description       *string   `gorm:"column:description"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// HasBankDetails reports whether the profile can receive bank transfers.
func (v *VendorProfile) HasBankDetails() bool {
	if v == nil {
		return false
	}
	return v.BankCode != nil && *v.BankCode != "" &&
		v.BankAccountNumber != nil && *v.BankAccountNumber != ""
}
