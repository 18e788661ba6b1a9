package controllers

import (
	"net/http"

	"github.com/shoplane/shoplane-backend/api/middleware"
	"github.com/shoplane/shoplane-backend/api/responses"
	"github.com/shoplane/shoplane-backend/api/validators"
	ordersvc "github.com/shoplane/shoplane-backend/internal/orders"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
	"github.com/shoplane/shoplane-backend/pkg/logger"
)

// OrderHistory serves the caller's paginated order history.
func OrderHistory(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
			return
		}

		page, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByUser(r.Context(), userID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteOrders(w, list.Orders, list.Pagination)
	}
}

// OrderGet serves one of the caller's orders with its line items.
func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
			return
		}

		orderID, err := validators.ParseIDParam(r, "id", "order ID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForUser(r.Context(), orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteOrder(w, order)
	}
}
