package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stuvendor/stuvendor-backend/api/responses"
	"github.com/stuvendor/stuvendor-backend/internal/orders"
	pkgerrors "github.com/stuvendor/stuvendor-backend/pkg/errors"
	"github.com/stuvendor/stuvendor-backend/pkg/logger"
)

// AdminCompleteOrder marks an order completed, which credits each vendor's
// share of the total to their ledger.
func AdminCompleteOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		if err := svc.Complete(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{
			"order_id": orderID.String(),
			"status":   "completed",
		})
	}
}
