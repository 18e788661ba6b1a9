package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/internal/cart"
	"github.com/shoplane/shoplane-backend/internal/catalog"
	"github.com/shoplane/shoplane-backend/internal/orders"
	"github.com/shoplane/shoplane-backend/pkg/db/models"
	"github.com/shoplane/shoplane-backend/pkg/enums"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  description TEXT,
  sku TEXT NOT NULL UNIQUE,
  price NUMERIC NOT NULL,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  category_id INTEGER,
  image_url TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	carts := `
CREATE TABLE IF NOT EXISTS carts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  cart_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  price_at_time NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT idx_cart_items_cart_product UNIQUE (cart_id, product_id)
);`
	ordersTable := `
CREATE TABLE IF NOT EXISTS orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  order_number TEXT NOT NULL UNIQUE,
  total_amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  shipping_address TEXT,
  billing_address TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price_at_time NUMERIC NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(carts).Error)
	require.NoError(t, db.Exec(cartItems).Error)
	require.NoError(t, db.Exec(ordersTable).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func newCheckoutService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Tx:          testTxRunner{db: db},
		CartRepo:    cart.NewRepository(db),
		CatalogRepo: catalog.NewRepository(db),
		OrdersRepo:  orders.NewRepository(db),
		Now:         func() time.Time { return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return svc
}

func createProduct(t *testing.T, db *gorm.DB, name, sku string, price string, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:          name,
		SKU:           sku,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func createCart(t *testing.T, db *gorm.DB, userID int64) *models.Cart {
	t.Helper()

	record := &models.Cart{UserID: userID}
	require.NoError(t, db.Create(record).Error)
	return record
}

func addCartItem(t *testing.T, db *gorm.DB, cartID int64, product *models.Product, qty int, price string) *models.CartItem {
	t.Helper()

	item := &models.CartItem{
		CartID:      cartID,
		ProductID:   product.ID,
		Quantity:    qty,
		PriceAtTime: decimal.RequireFromString(price),
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(model).Count(&count).Error)
	return count
}

func TestCheckoutSuccess(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)

	widget := createProduct(t, db, "Widget", "WID-001", "19.99", 10)
	gadget := createProduct(t, db, "Gadget", "GAD-001", "5.00", 4)
	record := createCart(t, db, 7)
	// price_at_time deliberately differs from the live price: the frozen
	// cart price must flow into the order, not the catalog price.
	addCartItem(t, db, record.ID, widget, 2, "18.50")
	addCartItem(t, db, record.ID, gadget, 3, "5.00")

	summary, err := svc.Checkout(context.Background(), 7, record.ID, Request{PaymentDetails: validPayment()})
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 2, summary.ItemsCount)
	assert.Equal(t, enums.OrderStatusPending.String(), summary.Status)
	assert.True(t, summary.TotalAmount.Equal(decimal.RequireFromString("52.00")),
		"expected 2*18.50 + 3*5.00 = 52.00, got %s", summary.TotalAmount)
	assert.True(t, strings.HasPrefix(summary.OrderNumber, "ORD-"))

	var order models.Order
	require.NoError(t, db.First(&order, "id = ?", summary.OrderID).Error)
	assert.Equal(t, int64(7), order.UserID)
	assert.Equal(t, enums.OrderStatusPending, order.Status)

	var items []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).Order("id ASC").Find(&items).Error)
	require.Len(t, items, 2)
	assert.Equal(t, "Widget", items[0].ProductName)
	assert.True(t, items[0].PriceAtTime.Equal(decimal.RequireFromString("18.50")))

	assert.Zero(t, countRows(t, db, &models.CartItem{}), "cart must be cleared")

	var reloadedWidget, reloadedGadget models.Product
	require.NoError(t, db.First(&reloadedWidget, "id = ?", widget.ID).Error)
	require.NoError(t, db.First(&reloadedGadget, "id = ?", gadget.ID).Error)
	assert.Equal(t, 8, reloadedWidget.StockQuantity)
	assert.Equal(t, 1, reloadedGadget.StockQuantity)
}

func TestCheckoutCartNotFound(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)

	_, err := svc.Checkout(context.Background(), 7, 999, Request{PaymentDetails: validPayment()})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, "Cart not found", typed.Message())
}

func TestCheckoutForeignCartResolvesToNotFound(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)

	widget := createProduct(t, db, "Widget", "WID-001", "19.99", 10)
	record := createCart(t, db, 7)
	addCartItem(t, db, record.ID, widget, 1, "19.99")

	_, err := svc.Checkout(context.Background(), 8, record.ID, Request{PaymentDetails: validPayment()})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, int64(1), countRows(t, db, &models.CartItem{}), "cart must not be touched")
}

func TestCheckoutEmptyCart(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)

	record := createCart(t, db, 7)

	_, err := svc.Checkout(context.Background(), 7, record.ID, Request{PaymentDetails: validPayment()})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeEmptyCart, typed.Code())
	assert.Equal(t, "Cart is empty", typed.Message())
}

func TestCheckoutMissingPaymentFields(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)

	widget := createProduct(t, db, "Widget", "WID-001", "19.99", 10)
	record := createCart(t, db, 7)
	addCartItem(t, db, record.ID, widget, 1, "19.99")

	payment := validPayment()
	payment.CVV = ""

	_, err := svc.Checkout(context.Background(), 7, record.ID, Request{PaymentDetails: payment})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "Missing required payment fields", typed.Message())

	assert.Zero(t, countRows(t, db, &models.Order{}))
	assert.Equal(t, int64(1), countRows(t, db, &models.CartItem{}), "cart must survive a failed checkout")
}

func TestCheckoutInvalidPaymentDetails(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)

	widget := createProduct(t, db, "Widget", "WID-001", "19.99", 10)
	record := createCart(t, db, 7)
	addCartItem(t, db, record.ID, widget, 1, "19.99")

	payment := validPayment()
	payment.ExpiryYear = "2020"

	_, err := svc.Checkout(context.Background(), 7, record.ID, Request{PaymentDetails: payment})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodePaymentInvalid, typed.Code())
	assert.Equal(t, "Invalid payment details: Card expired", typed.Message())
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)

	widget := createProduct(t, db, "Widget", "WID-001", "19.99", 10)
	gadget := createProduct(t, db, "Gadget", "GAD-001", "5.00", 1)
	record := createCart(t, db, 7)
	addCartItem(t, db, record.ID, widget, 2, "19.99")
	addCartItem(t, db, record.ID, gadget, 3, "5.00")

	_, err := svc.Checkout(context.Background(), 7, record.ID, Request{PaymentDetails: validPayment()})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	// The widget decrement ran first inside the transaction and must be
	// rolled back with everything else.
	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", widget.ID).Error)
	assert.Equal(t, 10, reloaded.StockQuantity)
	assert.Zero(t, countRows(t, db, &models.Order{}))
	assert.Equal(t, int64(2), countRows(t, db, &models.CartItem{}))
}

func TestCheckoutAddressesPersisted(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)

	widget := createProduct(t, db, "Widget", "WID-001", "19.99", 10)
	record := createCart(t, db, 7)
	addCartItem(t, db, record.ID, widget, 1, "19.99")

	req := Request{
		PaymentDetails:  validPayment(),
		ShippingAddress: map[string]any{"line1": "123 Main St", "city": "Springfield"},
	}
	summary, err := svc.Checkout(context.Background(), 7, record.ID, req)
	require.NoError(t, err)

	var order models.Order
	require.NoError(t, db.First(&order, "id = ?", summary.OrderID).Error)
	require.NotNil(t, order.ShippingAddress)
	assert.Equal(t, "123 Main St", order.ShippingAddress["line1"])
}

func TestCheckoutShippingFallsBackToBilling(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)

	widget := createProduct(t, db, "Widget", "WID-001", "19.99", 10)
	record := createCart(t, db, 7)
	addCartItem(t, db, record.ID, widget, 1, "19.99")

	req := Request{
		PaymentDetails: validPayment(),
		BillingAddress: map[string]any{"line1": "9 Billing Rd", "city": "Springfield"},
	}
	summary, err := svc.Checkout(context.Background(), 7, record.ID, req)
	require.NoError(t, err)

	var order models.Order
	require.NoError(t, db.First(&order, "id = ?", summary.OrderID).Error)
	assert.Equal(t, "9 Billing Rd", order.BillingAddress["line1"])
	assert.Equal(t, "9 Billing Rd", order.ShippingAddress["line1"])
	assert.Equal(t, "Springfield", order.ShippingAddress["city"])
}

func TestCheckoutWithoutAddressesStoresEmptyObjects(t *testing.T) {
	db := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, db)

	widget := createProduct(t, db, "Widget", "WID-001", "19.99", 10)
	record := createCart(t, db, 7)
	addCartItem(t, db, record.ID, widget, 1, "19.99")

	summary, err := svc.Checkout(context.Background(), 7, record.ID, Request{PaymentDetails: validPayment()})
	require.NoError(t, err)

	var order models.Order
	require.NoError(t, db.First(&order, "id = ?", summary.OrderID).Error)
	assert.NotNil(t, order.ShippingAddress)
	assert.NotNil(t, order.BillingAddress)
	assert.Empty(t, order.ShippingAddress)
	assert.Empty(t, order.BillingAddress)
}

func TestRequestDecodesFlatPaymentFields(t *testing.T) {
	body := `{
		"payment_method": "credit_card",
		"card_number": "4242424242424242",
		"expiry_month": "12",
		"expiry_year": "2030",
		"cvv": "123",
		"billing_address": {"line1": "9 Billing Rd"}
	}`

	var req Request
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	assert.Equal(t, "credit_card", req.PaymentMethod)
	assert.Equal(t, "4242424242424242", req.CardNumber)
	assert.Equal(t, "12", req.ExpiryMonth)
	assert.Equal(t, "2030", req.ExpiryYear)
	assert.Equal(t, "123", req.CVV)
	assert.Equal(t, "9 Billing Rd", req.BillingAddress["line1"])
	require.NoError(t, ValidatePayment(req.PaymentDetails, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)))
}
