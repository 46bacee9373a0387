package withdrawals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/stuvendor/stuvendor-backend/internal/ledger"
	"github.com/stuvendor/stuvendor-backend/internal/vendors"
	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	"github.com/stuvendor/stuvendor-backend/pkg/enums"
	pkgerrors "github.com/stuvendor/stuvendor-backend/pkg/errors"
	"github.com/stuvendor/stuvendor-backend/pkg/flutterwave"
	"github.com/stuvendor/stuvendor-backend/pkg/logger"
	"github.com/stuvendor/stuvendor-backend/pkg/metrics"
	"gorm.io/gorm"
)

// Transferer is the narrow slice of the payment provider the withdrawal
// pipeline needs.
type Transferer interface {
	Transfer(ctx context.Context, params flutterwave.TransferParams) (*flutterwave.TransferResult, error)
	Currency() string
}

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

const (
	statusWriteAttempts = 3
	statusWriteBackoff  = 250 * time.Millisecond
)

// ServiceParams groups dependencies for the withdrawal service.
type ServiceParams struct {
	DB        TxRunner
	Vendors   vendors.Repository
	Ledger    ledger.Repository
	LedgerSvc *ledger.Service
	Provider  Transferer
	Metrics   *metrics.WithdrawalMetrics
	Logger    *logger.Logger
}

// Service moves vendor ledger balance out to a bank account through the
// payment provider. Each attempt walks requested -> pending -> completed or
// failed; the pending entry is written before the provider is called so the
// record of intent survives a lost response.
type Service struct {
	db        TxRunner
	vendors   vendors.Repository
	ledger    ledger.Repository
	ledgerSvc *ledger.Service
	provider  Transferer
	metrics   *metrics.WithdrawalMetrics
	logger    *logger.Logger
}

// NewService builds a withdrawal service.
func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, errors.New("db is required")
	}
	if params.Vendors == nil {
		return nil, errors.New("vendors repo is required")
	}
	if params.Ledger == nil {
		return nil, errors.New("ledger repo is required")
	}
	if params.LedgerSvc == nil {
		return nil, errors.New("ledger service is required")
	}
	if params.Provider == nil {
		return nil, errors.New("transfer provider is required")
	}
	return &Service{
		db:        params.DB,
		vendors:   params.Vendors,
		ledger:    params.Ledger,
		ledgerSvc: params.LedgerSvc,
		provider:  params.Provider,
		metrics:   params.Metrics,
		logger:    params.Logger,
	}, nil
}

// Result describes the terminal state of one withdrawal attempt.
type Result struct {
	EntryID            uuid.UUID
	Reference          string
	Status             enums.LedgerEntryStatus
	AmountCents        int64
	ProviderTransferID string
}

// Withdraw runs one withdrawal attempt end to end.
func (s *Service) Withdraw(ctx context.Context, vendorID uuid.UUID, amountCents int64) (*Result, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount must be positive")
	}

	entry, profile, err := s.reserve(ctx, vendorID, amountCents)
	if err != nil {
		return nil, err
	}

	result := &Result{
		EntryID:     entry.ID,
		Reference:   *entry.Reference,
		AmountCents: amountCents,
	}

	transfer, transferErr := s.callProvider(ctx, profile, entry, amountCents)
	if transferErr != nil {
		if err := s.finalize(ctx, entry.ID, enums.LedgerEntryStatusFailed, nil); err != nil {
			return nil, err
		}
		result.Status = enums.LedgerEntryStatusFailed
		s.observeOutcome(string(enums.LedgerEntryStatusFailed))

		if errors.Is(transferErr, flutterwave.ErrTransferTimeout) {
			return result, pkgerrors.Wrap(pkgerrors.CodeDependency, transferErr, "provider transfer timed out")
		}
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, transferErr, "provider transfer failed")
	}

	providerID := transfer.ProviderID
	if err := s.finalize(ctx, entry.ID, enums.LedgerEntryStatusCompleted, &providerID); err != nil {
		return nil, err
	}
	result.Status = enums.LedgerEntryStatusCompleted
	result.ProviderTransferID = providerID
	s.observeOutcome(string(enums.LedgerEntryStatusCompleted))

	if s.logger != nil {
		s.logger.Info(s.logger.WithFields(ctx, map[string]any{
			"vendor_id":    vendorID.String(),
			"entry_id":     entry.ID.String(),
			"amount_cents": amountCents,
			"transfer_id":  providerID,
		}), "withdrawal completed")
	}
	return result, nil
}

// reserve checks eligibility and writes the pending entry. The vendor row
// lock makes the balance check and the insert one serialized step, so two
// concurrent attempts cannot both pass the sufficiency check.
func (s *Service) reserve(ctx context.Context, vendorID uuid.UUID, amountCents int64) (*models.LedgerEntry, *models.VendorProfile, error) {
	var (
		entry   *models.LedgerEntry
		profile *models.VendorProfile
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.vendors.WithTx(tx).LockByID(ctx, vendorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "vendor profile not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock vendor profile")
		}
		if !locked.HasBankDetails() {
			return pkgerrors.New(pkgerrors.CodeValidation, "bank details missing")
		}

		available, err := s.ledgerSvc.AvailableForWithdrawal(ctx, s.ledger.WithTx(tx), vendorID)
		if err != nil {
			return err
		}
		if amountCents > available {
			return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "withdrawal exceeds available balance").
				WithDetails(map[string]int64{"available_cents": available})
		}

		reference := "wd_" + uuid.NewString()
		pending := &models.LedgerEntry{
			VendorID:    vendorID,
			AmountCents: amountCents,
			Type:        enums.LedgerEntryTypeWithdrawal,
			Status:      enums.LedgerEntryStatusPending,
			Reference:   &reference,
		}
		if err := s.ledger.WithTx(tx).Create(ctx, pending); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write pending withdrawal")
		}

		entry = pending
		profile = locked
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, nil, typed
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger unavailable")
	}
	return entry, profile, nil
}

func (s *Service) callProvider(ctx context.Context, profile *models.VendorProfile, entry *models.LedgerEntry, amountCents int64) (*flutterwave.TransferResult, error) {
	amount := decimal.NewFromInt(amountCents).Div(decimal.NewFromInt(100))
	params := flutterwave.TransferParams{
		BankCode:      deref(profile.BankCode),
		AccountNumber: deref(profile.BankAccountNumber),
		Amount:        amount,
		Currency:      s.provider.Currency(),
		Reference:     *entry.Reference,
		Narration:     fmt.Sprintf("Payout to %s", profile.BusinessName),
	}

	start := time.Now()
	result, err := s.provider.Transfer(ctx, params)
	outcome := "success"
	if err != nil {
		outcome = "failure"
		if errors.Is(err, flutterwave.ErrTransferTimeout) {
			outcome = "timeout"
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveTransfer(outcome, time.Since(start))
	}
	return result, err
}

// finalize moves the pending entry to its terminal status. The write is
// retried with constant backoff; if it still cannot land after a provider
// response was received, the entry is flagged for manual reconciliation
// rather than silently left pending.
func (s *Service) finalize(ctx context.Context, entryID uuid.UUID, to enums.LedgerEntryStatus, providerTransferID *string) error {
	if !enums.LedgerEntryStatusPending.CanTransitionTo(to) {
		return pkgerrors.New(pkgerrors.CodeInternal, "invalid ledger status transition")
	}

	backoff := retry.WithMaxRetries(statusWriteAttempts-1, retry.NewConstant(statusWriteBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.ledger.UpdateStatus(ctx, entryID, enums.LedgerEntryStatusPending, to, providerTransferID)
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The pending row is gone or already transitioned; settled is
			// fine, anything else is an operator problem.
			current, findErr := s.ledger.FindByID(ctx, entryID)
			if findErr == nil && current.Status == to {
				return nil
			}
			return err
		}
		return retry.RetryableError(err)
	})
	if err == nil {
		return nil
	}

	if s.metrics != nil {
		s.metrics.IncReconciliationRequired()
	}
	if s.logger != nil {
		s.logger.Error(s.logger.WithFields(ctx, map[string]any{
			"entry_id": entryID.String(),
			"target":   string(to),
		}), "withdrawal entry stuck pending, manual reconciliation required", err)
	}
	return pkgerrors.Wrap(pkgerrors.CodeReconciliation, err, "withdrawal status write failed after provider response").
		WithDetails(map[string]string{"entry_id": entryID.String()})
}

func (s *Service) observeOutcome(status string) {
	if s.metrics != nil {
		s.metrics.IncOutcome(status)
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
