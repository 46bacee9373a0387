package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgauth "github.com/stuvendor/stuvendor-backend/pkg/auth"
	"github.com/stuvendor/stuvendor-backend/pkg/config"
	"github.com/stuvendor/stuvendor-backend/pkg/db"
	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	"github.com/stuvendor/stuvendor-backend/pkg/enums"
	pkgerrors "github.com/stuvendor/stuvendor-backend/pkg/errors"
	"github.com/stuvendor/stuvendor-backend/pkg/logger"
	"github.com/stuvendor/stuvendor-backend/pkg/security"
	"gorm.io/gorm"
)

type accountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
}

// ServiceParams groups dependencies for the auth service.
type ServiceParams struct {
	Accounts accountStore
	JWT      config.JWTConfig
	Password config.PasswordConfig
	Logger   *logger.Logger
	Now      func() time.Time
}

// Service registers accounts and exchanges credentials for access tokens.
type Service struct {
	accounts accountStore
	jwt      config.JWTConfig
	password config.PasswordConfig
	logger   *logger.Logger
	now      func() time.Time
}

// NewService builds an auth service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Accounts == nil {
		return nil, errors.New("accounts store is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		accounts: params.Accounts,
		jwt:      params.JWT,
		password: params.Password,
		logger:   params.Logger,
		now:      now,
	}, nil
}

// Register creates an account and issues its first access token. Admin
// accounts are provisioned out of band, never through this endpoint.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	role := input.Role
	if role == "" {
		role = enums.AccountRoleCustomer
	}
	if role != enums.AccountRoleCustomer && role != enums.AccountRoleVendor {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be customer or vendor")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	account := &models.Account{
		Email:        email,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		PasswordHash: &hash,
		Role:         role,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if db.IsUniqueViolation(err, "accounts_email_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create account")
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithAccountID(ctx, account.ID.String()), "account registered")
	}
	return s.issueSession(account)
}

// Login verifies credentials and issues an access token. All credential
// failures collapse into one unauthorized answer so the endpoint does not
// leak which part was wrong.
func (s *Service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
	}
	if account.PasswordHash == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(input.Password, *account.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	return s.issueSession(account)
}

func (s *Service) issueSession(account *models.Account) (*Session, error) {
	now := s.now()
	token, err := pkgauth.MintAccessToken(s.jwt, now, pkgauth.AccessTokenPayload{
		AccountID: account.ID,
		Role:      account.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &Session{
		Token:     token,
		ExpiresAt: now.Add(s.jwt.AccessTokenTTL()),
		Account:   account,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
