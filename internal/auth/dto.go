package auth

import (
	"time"

	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	"github.com/stuvendor/stuvendor-backend/pkg/enums"
)

// RegisterInput carries a signup request.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        enums.AccountRole
}

// LoginInput carries a credential check request.
type LoginInput struct {
	Email    string
	Password string
}

// Session is the issued credential plus the account it belongs to.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   *models.Account
}
