package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stuvendor/stuvendor-backend/pkg/enums"
)

// Account represents the canonical identity entity. Password hash is absent
// for OAuth-only accounts.
type Account struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email            string            `gorm:"column:email;type:text;not null;uniqueIndex"`
	DisplayName      string            `gorm:"column:display_name;not null"`
	PasswordHash     *string           `gorm:"column:password_hash"`
	Role             enums.AccountRole `gorm:"column:role;type:account_role_enum;not null;default:'customer'"`
	ProfileCompleted bool              `gorm:"column:profile_completed;not null;default:false"`
	EmailVerified    bool              `gorm:"column:email_verified;not null;default:false"`
	OAuthID          *string           `gorm:"column:oauth_id"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
