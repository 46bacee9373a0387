package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stuvendor/stuvendor-backend/api/middleware"
	"github.com/stuvendor/stuvendor-backend/api/responses"
	"github.com/stuvendor/stuvendor-backend/api/validators"
	"github.com/stuvendor/stuvendor-backend/internal/ledger"
	"github.com/stuvendor/stuvendor-backend/internal/vendors"
	"github.com/stuvendor/stuvendor-backend/internal/withdrawals"
	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	pkgerrors "github.com/stuvendor/stuvendor-backend/pkg/errors"
	"github.com/stuvendor/stuvendor-backend/pkg/logger"
)

type createProfileRequest struct {
	BusinessName      string  `json:"business_name" validate:"required,max=160"`
	BankCode          string  `json:"bank_code" validate:"omitempty,max=16"`
	BankAccountNumber string  `json:"bank_account_number" validate:"omitempty,max=32"`
	BankAccountName   string  `json:"bank_account_name" validate:"omitempty,max=160"`
	Address           *string `json:"address" validate:"omitempty,max=500"`
	Description       *string `json:"description" validate:"omitempty,max=2000"`
}

type vendorProfileResponse struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"account_id"`
	BusinessName string    `json:"business_name"`
	HasBank      bool      `json:"has_bank_details"`
	CreatedAt    time.Time `json:"created_at"`
}

func toVendorProfileResponse(profile *models.VendorProfile) vendorProfileResponse {
	return vendorProfileResponse{
		ID:           profile.ID.String(),
		AccountID:    profile.AccountID.String(),
		BusinessName: profile.BusinessName,
		HasBank:      profile.HasBankDetails(),
		CreatedAt:    profile.CreatedAt,
	}
}

// CreateVendorProfile onboards the authenticated vendor-role account.
func CreateVendorProfile(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := middleware.AccountIDFromContext(r.Context())
		if accountID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var req createProfileRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.CreateProfile(r.Context(), accountID, vendors.CreateProfileInput{
			BusinessName:      req.BusinessName,
			BankCode:          req.BankCode,
			BankAccountNumber: req.BankAccountNumber,
			BankAccountName:   req.BankAccountName,
			Address:           req.Address,
			Description:       req.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toVendorProfileResponse(profile))
	}
}

type balanceResponse struct {
	VendorID     string `json:"vendor_id"`
	BalanceCents int64  `json:"balance_cents"`
}

// VendorBalance returns the vendor's available balance computed from the ledger.
func VendorBalance(svc *ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := middleware.VendorIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor profile missing"))
			return
		}

		balance, err := svc.ComputeBalance(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, balanceResponse{
			VendorID:     vendorID.String(),
			BalanceCents: balance,
		})
	}
}

type ledgerEntryResponse struct {
	ID          string    `json:"id"`
	AmountCents int64     `json:"amount_cents"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	OrderID     *string   `json:"order_id,omitempty"`
	Reference   *string   `json:"reference,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// VendorLedger lists the vendor's most recent ledger entries.
func VendorLedger(svc *ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := middleware.VendorIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor profile missing"))
			return
		}

		entries, err := svc.History(r.Context(), vendorID, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]ledgerEntryResponse, 0, len(entries))
		for _, entry := range entries {
			item := ledgerEntryResponse{
				ID:          entry.ID.String(),
				AmountCents: entry.AmountCents,
				Type:        string(entry.Type),
				Status:      string(entry.Status),
				Reference:   entry.Reference,
				CreatedAt:   entry.CreatedAt,
			}
			if entry.OrderID != nil {
				orderID := entry.OrderID.String()
				item.OrderID = &orderID
			}
			out = append(out, item)
		}
		responses.WriteSuccess(w, out)
	}
}

type withdrawRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"required,gt=0"`
}

type withdrawResponse struct {
	EntryID            string `json:"entry_id"`
	Reference          string `json:"reference"`
	Status             string `json:"status"`
	AmountCents        int64  `json:"amount_cents"`
	ProviderTransferID string `json:"provider_transfer_id,omitempty"`
}

// VendorWithdraw converts ledger balance into an external bank transfer.
func VendorWithdraw(svc *withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := middleware.VendorIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor profile missing"))
			return
		}

		var req withdrawRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Withdraw(r.Context(), vendorID, req.AmountCents)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, withdrawResponse{
			EntryID:            result.EntryID.String(),
			Reference:          result.Reference,
			Status:             string(result.Status),
			AmountCents:        result.AmountCents,
			ProviderTransferID: result.ProviderTransferID,
		})
	}
}
