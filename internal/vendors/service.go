package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stuvendor/stuvendor-backend/internal/accounts"
	"github.com/stuvendor/stuvendor-backend/pkg/db"
	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	"github.com/stuvendor/stuvendor-backend/pkg/enums"
	pkgerrors "github.com/stuvendor/stuvendor-backend/pkg/errors"
	"gorm.io/gorm"
)

// CreateProfileInput carries the onboarding payload for a vendor storefront.
type CreateProfileInput struct {
	BusinessName      string
	BankCode          string
	BankAccountNumber string
	BankAccountName   string
	Address           *string
	Description       *string
}

// Service handles vendor onboarding and profile lookups.
type Service interface {
	CreateProfile(ctx context.Context, accountID uuid.UUID, input CreateProfileInput) (*models.VendorProfile, error)
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*models.VendorProfile, error)
}

type service struct {
	db *db.Client
}

// NewService wires a vendor service with the shared database client.
func NewService(client *db.Client) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("database client required")
	}
	return &service{db: client}, nil
}

func (s *service) CreateProfile(ctx context.Context, accountID uuid.UUID, input CreateProfileInput) (*models.VendorProfile, error) {
	businessName := strings.TrimSpace(input.BusinessName)
	if businessName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name is required")
	}

	var created *models.VendorProfile
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		accountRepo := accounts.NewRepository(tx)
		vendorRepo := NewRepository(tx)

		account, err := accountRepo.FindByID(ctx, accountID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
		}
		if account.Role != enums.AccountRoleVendor {
			return pkgerrors.New(pkgerrors.CodeForbidden, "vendor role required")
		}

		if _, err := vendorRepo.FindByAccountID(ctx, accountID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "vendor profile already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check vendor profile")
		}

		profile := &models.VendorProfile{
			AccountID:    accountID,
			BusinessName: businessName,
			Address:      input.Address,
			Description:  input.Description,
		}
		if code := strings.TrimSpace(input.BankCode); code != "" {
			profile.BankCode = &code
		}
		if number := strings.TrimSpace(input.BankAccountNumber); number != "" {
			profile.BankAccountNumber = &number
		}
		if name := strings.TrimSpace(input.BankAccountName); name != "" {
			profile.BankAccountName = &name
		}

		if err := vendorRepo.Create(ctx, profile); err != nil {
			if db.IsUniqueViolation(err, "vendor_profiles_account_id_key") {
				return pkgerrors.New(pkgerrors.CodeConflict, "vendor profile already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create vendor profile")
		}

		if err := accountRepo.MarkProfileCompleted(ctx, accountID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark profile completed")
		}

		created = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*models.VendorProfile, error) {
	profile, err := NewRepository(s.db.DB()).FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vendor profile")
	}
	return profile, nil
}
