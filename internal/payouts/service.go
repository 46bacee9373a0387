package payouts

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stuvendor/stuvendor-backend/internal/ledger"
	"github.com/stuvendor/stuvendor-backend/pkg/db"
	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	"github.com/stuvendor/stuvendor-backend/pkg/enums"
	pkgerrors "github.com/stuvendor/stuvendor-backend/pkg/errors"
	"github.com/stuvendor/stuvendor-backend/pkg/logger"
	"gorm.io/gorm"
)

// ServiceParams groups dependencies for the split-payment service.
type ServiceParams struct {
	DB     *db.Client
	Ledger ledger.Repository
	Logger *logger.Logger
}

// Service splits a completed order's total across its vendors and credits
// each share to the vendor ledger. All entries for one order are written in
// a single transaction; the operation is idempotent per order id.
type Service struct {
	db     *db.Client
	ledger ledger.Repository
	logger *logger.Logger
}

// NewService builds a split-payment service.
func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, errors.New("db client is required")
	}
	if params.Ledger == nil {
		return nil, errors.New("ledger repo is required")
	}
	return &Service{db: params.DB, ledger: params.Ledger, logger: params.Logger}, nil
}

// vendorShare is one vendor's cut of an order.
type vendorShare struct {
	VendorID uuid.UUID
	Subtotal decimal.Decimal
	Cents    int64
}

// SplitOrder credits each vendor's share of the order inside its own
// transaction.
func (s *Service) SplitOrder(ctx context.Context, order *models.Order) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.SplitOrderTx(ctx, tx, order)
	})
}

// SplitOrderTx performs the split inside a caller-owned transaction so order
// completion and vendor crediting commit or roll back together.
func (s *Service) SplitOrderTx(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if order == nil || order.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	if order.TotalCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order total must not be negative")
	}

	repo := s.ledger.WithTx(tx)

	existing, err := repo.ListByOrder(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger unavailable")
	}
	if len(existing) > 0 {
		if s.logger != nil {
			s.logger.Info(s.logger.WithFields(ctx, map[string]any{
				"order_id": order.ID.String(),
				"entries":  len(existing),
			}), "order already split, skipping")
		}
		return nil
	}

	shares := computeShares(order)
	if len(shares) == 0 {
		return nil
	}

	orderID := order.ID
	entries := make([]models.LedgerEntry, 0, len(shares))
	for _, share := range shares {
		if share.Cents == 0 {
			continue
		}
		entries = append(entries, models.LedgerEntry{
			VendorID:    share.VendorID,
			AmountCents: share.Cents,
			Type:        enums.LedgerEntryTypeOrderSplit,
			Status:      enums.LedgerEntryStatusCompleted,
			OrderID:     &orderID,
		})
	}

	if err := repo.CreateAll(ctx, entries); err != nil {
		if db.IsUniqueViolation(err, "ledger_entries_order_split_unique") {
			// Another writer split this order between our existence check
			// and the insert. The order is credited; nothing to do.
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write order splits")
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithFields(ctx, map[string]any{
			"order_id":    order.ID.String(),
			"vendors":     len(entries),
			"total_cents": order.TotalCents,
		}), "order split into vendor shares")
	}
	return nil
}

// computeShares partitions the order lines by vendor and divides the order
// total proportionally to each vendor's line subtotal. Shares are floored to
// whole cents; the leftover cents go to the vendor with the largest subtotal,
// ties broken by lowest vendor id, so the shares always sum to the total.
func computeShares(order *models.Order) []vendorShare {
	subtotals := make(map[uuid.UUID]decimal.Decimal)
	for _, line := range order.Lines {
		if line.VendorID == uuid.Nil || line.Quantity <= 0 {
			continue
		}
		subtotals[line.VendorID] = subtotals[line.VendorID].Add(line.Subtotal())
	}
	if len(subtotals) == 0 {
		return nil
	}

	grand := decimal.Zero
	for _, sub := range subtotals {
		grand = grand.Add(sub)
	}
	if !grand.IsPositive() {
		return nil
	}

	shares := make([]vendorShare, 0, len(subtotals))
	for vendorID, sub := range subtotals {
		shares = append(shares, vendorShare{VendorID: vendorID, Subtotal: sub})
	}
	sort.Slice(shares, func(i, j int) bool {
		return shares[i].VendorID.String() < shares[j].VendorID.String()
	})

	total := decimal.NewFromInt(order.TotalCents)
	var assigned int64
	for i := range shares {
		cents := total.Mul(shares[i].Subtotal).Div(grand).Floor().IntPart()
		shares[i].Cents = cents
		assigned += cents
	}

	if remainder := order.TotalCents - assigned; remainder > 0 {
		largest := 0
		for i := 1; i < len(shares); i++ {
			if shares[i].Subtotal.GreaterThan(shares[largest].Subtotal) {
				largest = i
			}
		}
		shares[largest].Cents += remainder
	}
	return shares
}
