package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stuvendor/stuvendor-backend/internal/payouts"
	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	"github.com/stuvendor/stuvendor-backend/pkg/enums"
	pkgerrors "github.com/stuvendor/stuvendor-backend/pkg/errors"
	"github.com/stuvendor/stuvendor-backend/pkg/logger"
	"gorm.io/gorm"
)

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	DB      TxRunner
	Repo    Repository
	Payouts *payouts.Service
	Logger  *logger.Logger
}

// Service owns order state transitions. Completing an order and crediting
// its vendors happen in the same transaction so they commit or roll back
// together.
type Service struct {
	db      TxRunner
	repo    Repository
	payouts *payouts.Service
	logger  *logger.Logger
}

// NewService builds an order service.
func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, errors.New("db is required")
	}
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Payouts == nil {
		return nil, errors.New("payouts service is required")
	}
	return &Service{
		db:      params.DB,
		repo:    params.Repo,
		payouts: params.Payouts,
		logger:  params.Logger,
	}, nil
}

// Complete marks an order completed and splits its total across the vendor
// ledgers. Replays are no-ops: an already completed order only re-runs the
// idempotent split.
func (s *Service) Complete(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindWithLines(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}

		switch order.Status {
		case enums.OrderStatusCanceled:
			return pkgerrors.New(pkgerrors.CodeConflict, "canceled orders cannot be completed")
		case enums.OrderStatusCompleted:
			// Replay: the split below short-circuits if entries exist.
		case enums.OrderStatusPending:
			if err := repo.UpdateStatus(ctx, orderID, enums.OrderStatusPending, enums.OrderStatusCompleted); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete order")
			}
			order.Status = enums.OrderStatusCompleted
		default:
			return pkgerrors.New(pkgerrors.CodeConflict, "order is not completable")
		}

		if err := s.payouts.SplitOrderTx(ctx, tx, order); err != nil {
			return err
		}

		if s.logger != nil {
			s.logger.Info(s.logger.WithFields(ctx, map[string]any{
				"order_id":    order.ID.String(),
				"total_cents": order.TotalCents,
			}), "order completed")
		}
		return nil
	})
}

// Get loads an order with its lines.
func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindWithLines(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}
