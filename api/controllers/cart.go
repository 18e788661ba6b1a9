package controllers

import (
	"net/http"

	"github.com/shoplane/shoplane-backend/api/middleware"
	"github.com/shoplane/shoplane-backend/api/responses"
	"github.com/shoplane/shoplane-backend/api/validators"
	cartsvc "github.com/shoplane/shoplane-backend/internal/cart"
	checkoutsvc "github.com/shoplane/shoplane-backend/internal/checkout"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
	"github.com/shoplane/shoplane-backend/pkg/logger"
)

// CartView returns the caller's cart with joined product details.
func CartView(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
			return
		}

		view, err := svc.View(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// CartAddItem adds a product to the cart or increments an existing line.
// Responds 201 when a new line was created and 200 when one was updated.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
			return
		}

		var body cartsvc.AddItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, created, err := svc.AddItem(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if created {
			responses.WriteSuccessMessage(w, http.StatusCreated, "Item added to cart", view)
			return
		}
		responses.WriteSuccessMessage(w, http.StatusOK, "Cart item updated", view)
	}
}

// CartUpdateItem changes the quantity of one cart line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
			return
		}

		itemID, err := validators.ParseIDParam(r, "id", "item ID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cartsvc.UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateItem(r.Context(), userID, itemID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// CartRemoveItem deletes one cart line.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
			return
		}

		itemID, err := validators.ParseIDParam(r, "id", "item ID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.RemoveItem(r.Context(), userID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessMessage(w, http.StatusOK, "Item removed from cart", view)
	}
}

// CartClear deletes every line from the caller's cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
			return
		}

		view, err := svc.Clear(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessMessage(w, http.StatusOK, "Cart cleared", view)
	}
}

// CartCheckout converts the cart into an order.
func CartCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
			return
		}

		cartID, err := validators.ParseIDParam(r, "cartId", "cart ID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// A bodyless checkout must reach the payment presence check, not
		// fail on JSON decoding.
		var body checkoutsvc.Request
		if err := validators.DecodeJSONBodyAllowEmpty(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Checkout(r.Context(), userID, cartID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithOrderID(r.Context(), summary.OrderID), "checkout completed")
		}
		responses.WriteSuccessMessage(w, http.StatusCreated, "Order placed successfully", summary)
	}
}
