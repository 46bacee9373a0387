package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stuvendor/stuvendor-backend/pkg/enums"
)

// LedgerEntry records one immutable financial event attributed to a vendor.
// Amount and type never change after creation; status is the only mutable
// column and it only moves pending -> completed | failed.
type LedgerEntry struct {
	ID                 uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID           uuid.UUID               `gorm:"column:vendor_id;type:uuid;not null"`
	AmountCents        int64                   `gorm:"column:amount_cents;not null"`
	Type               enums.LedgerEntryType   `gorm:"column:type;type:ledger_entry_type_enum;not null"`
	Status             enums.LedgerEntryStatus `gorm:"column:status;type:ledger_entry_status_enum;not null;default:'pending'"`
	OrderID            *uuid.UUID              `gorm:"column:order_id;type:uuid"`
	Reference          *string                 `gorm:"column:reference"`
	ProviderTransferID *string                 `gorm:"column:provider_transfer_id"`
	CreatedAt          time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
