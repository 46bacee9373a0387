package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	"github.com/stuvendor/stuvendor-backend/pkg/enums"
	pkgerrors "github.com/stuvendor/stuvendor-backend/pkg/errors"
)

var completedOnly = []enums.LedgerEntryStatus{enums.LedgerEntryStatusCompleted}

var withdrawalHolds = []enums.LedgerEntryStatus{
	enums.LedgerEntryStatusCompleted,
	enums.LedgerEntryStatusPending,
}

// ServiceParams groups dependencies for the ledger service.
type ServiceParams struct {
	Repo Repository
}

// Service computes vendor balances from the append-only entry log. Balances
// are always derived at call time; there is no cached running balance column
// to drift from partially failed provider calls.
type Service struct {
	repo Repository
}

// NewService builds a ledger service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// ComputeBalance returns completed earnings minus completed withdrawals.
// Pending and failed entries never contribute.
func (s *Service) ComputeBalance(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	return s.computeBalance(ctx, s.repo, vendorID)
}

// ComputeBalanceWith runs the balance computation against a caller-supplied
// repository, typically one bound to an open transaction.
func (s *Service) ComputeBalanceWith(ctx context.Context, repo Repository, vendorID uuid.UUID) (int64, error) {
	return s.computeBalance(ctx, repo, vendorID)
}

func (s *Service) computeBalance(ctx context.Context, repo Repository, vendorID uuid.UUID) (int64, error) {
	if vendorID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}

	earned, err := repo.SumAmount(ctx, vendorID, enums.LedgerEntryTypeOrderSplit, completedOnly)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger unavailable")
	}
	withdrawn, err := repo.SumAmount(ctx, vendorID, enums.LedgerEntryTypeWithdrawal, completedOnly)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger unavailable")
	}
	return earned - withdrawn, nil
}

// AvailableForWithdrawal is the sufficiency-check view of the balance: it
// additionally subtracts pending withdrawals, treating in-flight transfers
// as reserved funds until the provider resolves them.
func (s *Service) AvailableForWithdrawal(ctx context.Context, repo Repository, vendorID uuid.UUID) (int64, error) {
	if repo == nil {
		repo = s.repo
	}
	if vendorID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}

	earned, err := repo.SumAmount(ctx, vendorID, enums.LedgerEntryTypeOrderSplit, completedOnly)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger unavailable")
	}
	held, err := repo.SumAmount(ctx, vendorID, enums.LedgerEntryTypeWithdrawal, withdrawalHolds)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger unavailable")
	}
	return earned - held, nil
}

// History returns the most recent entries for a vendor.
func (s *Service) History(ctx context.Context, vendorID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	entries, err := s.repo.ListByVendor(ctx, vendorID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger unavailable")
	}
	return entries, nil
}
