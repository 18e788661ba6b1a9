package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shoplane/shoplane-backend/api/middleware"
	cartsvc "github.com/shoplane/shoplane-backend/internal/cart"
	checkoutsvc "github.com/shoplane/shoplane-backend/internal/checkout"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
)

type stubCartService struct {
	view    *cartsvc.CartDTO
	created bool
	err     error
}

func (s *stubCartService) View(ctx context.Context, userID int64) (*cartsvc.CartDTO, error) {
	return s.view, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, userID int64, req cartsvc.AddItemRequest) (*cartsvc.CartDTO, bool, error) {
	return s.view, s.created, s.err
}

func (s *stubCartService) UpdateItem(ctx context.Context, userID, itemID int64, req cartsvc.UpdateItemRequest) (*cartsvc.CartDTO, error) {
	return s.view, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, itemID int64) (*cartsvc.CartDTO, error) {
	return s.view, s.err
}

func (s *stubCartService) Clear(ctx context.Context, userID int64) (*cartsvc.CartDTO, error) {
	return s.view, s.err
}

type stubCheckoutService struct {
	summary    *checkoutsvc.Summary
	err        error
	lastCartID int64
}

func (s *stubCheckoutService) Checkout(ctx context.Context, userID, cartID int64, req checkoutsvc.Request) (*checkoutsvc.Summary, error) {
	s.lastCartID = cartID
	return s.summary, s.err
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithUserID(req.Context(), 7))
}

func TestCartViewRequiresAuth(t *testing.T) {
	handler := CartView(&stubCartService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddItemCreated(t *testing.T) {
	svc := &stubCartService{
		view:    &cartsvc.CartDTO{ID: 1, UserID: 7, TotalItems: 1},
		created: true,
	}
	handler := CartAddItem(svc, nil)

	req := authedRequest(http.MethodPost, "/api/cart/items", `{"product_id":3,"quantity":2}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}

	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Message != "Item added to cart" {
		t.Fatalf("unexpected message %q", envelope.Message)
	}
}

func TestCartAddItemExistingLine(t *testing.T) {
	svc := &stubCartService{view: &cartsvc.CartDTO{ID: 1, UserID: 7, TotalItems: 1}}
	handler := CartAddItem(svc, nil)

	req := authedRequest(http.MethodPost, "/api/cart/items", `{"product_id":3,"quantity":2}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCartAddItemRejectsZeroQuantity(t *testing.T) {
	handler := CartAddItem(&stubCartService{}, nil)

	req := authedRequest(http.MethodPost, "/api/cart/items", `{"product_id":3,"quantity":0}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartCheckoutSuccess(t *testing.T) {
	svc := &stubCheckoutService{summary: &checkoutsvc.Summary{
		OrderID:     9,
		OrderNumber: "ORD-1700000000000-42",
		TotalAmount: decimal.RequireFromString("52.00"),
		Status:      "pending",
		ItemsCount:  2,
	}}

	router := chi.NewRouter()
	router.Post("/api/cart/{cartId}/checkout", CartCheckout(svc, nil))

	body := `{"payment_method":"credit_card","card_number":"4242424242424242","expiry_month":"12","expiry_year":"2030","cvv":"123"}`
	req := authedRequest(http.MethodPost, "/api/cart/1/checkout", body)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastCartID != 1 {
		t.Fatalf("expected cart 1, got %d", svc.lastCartID)
	}

	var envelope struct {
		Message string `json:"message"`
		Data    struct {
			OrderNumber string `json:"order_number"`
			Status      string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Message != "Order placed successfully" {
		t.Fatalf("unexpected message %q", envelope.Message)
	}
	if envelope.Data.Status != "pending" || envelope.Data.OrderNumber == "" {
		t.Fatalf("unexpected summary: %+v", envelope.Data)
	}
}

func TestCartCheckoutInvalidCartID(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/api/cart/{cartId}/checkout", CartCheckout(&stubCheckoutService{}, nil))

	req := authedRequest(http.MethodPost, "/api/cart/abc/checkout", `{}`)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartCheckoutServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"cart not found", pkgerrors.New(pkgerrors.CodeNotFound, "Cart not found"), http.StatusNotFound},
		{"empty cart", pkgerrors.New(pkgerrors.CodeEmptyCart, "Cart is empty"), http.StatusBadRequest},
		{"payment invalid", pkgerrors.New(pkgerrors.CodePaymentInvalid, "Invalid payment details: Card expired"), http.StatusBadRequest},
		{"insufficient stock", pkgerrors.New(pkgerrors.CodeInsufficientStock, "Insufficient stock for product: Widget"), http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := chi.NewRouter()
			router.Post("/api/cart/{cartId}/checkout", CartCheckout(&stubCheckoutService{err: tc.err}, nil))

			body := `{"payment_method":"credit_card","card_number":"4242424242424242","expiry_month":"12","expiry_year":"2030","cvv":"123"}`
			req := authedRequest(http.MethodPost, "/api/cart/1/checkout", body)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestCartCheckoutEmptyBodyReachesService(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeValidation, "Missing required payment fields")}

	router := chi.NewRouter()
	router.Post("/api/cart/{cartId}/checkout", CartCheckout(svc, nil))

	req := authedRequest(http.MethodPost, "/api/cart/1/checkout", "")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastCartID != 1 {
		t.Fatal("expected the empty body to reach the checkout service")
	}

	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Message != "Missing required payment fields" {
		t.Fatalf("unexpected message %q", envelope.Message)
	}
}
