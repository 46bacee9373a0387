package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stuvendor/stuvendor-backend/pkg/enums"
)

// Order is one purchase transaction, potentially spanning multiple vendors.
type Order struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID  uuid.UUID         `gorm:"column:account_id;type:uuid;not null"`
	TotalCents int64             `gorm:"column:total_cents;not null"`
	Status     enums.OrderStatus `gorm:"column:status;type:order_status_enum;not null;default:'pending'"`
	Lines      []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
