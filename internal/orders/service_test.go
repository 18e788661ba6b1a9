package orders

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/pkg/db/models"
	"github.com/shoplane/shoplane-backend/pkg/enums"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
	"github.com/shoplane/shoplane-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	orders := `
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
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, userID int64, number string, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		UserID:      userID,
		OrderNumber: number,
		TotalAmount: decimal.RequireFromString("10.00"),
		Status:      enums.OrderStatusPending,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, db.Create(order).Error)

	item := &models.OrderItem{
		OrderID:     order.ID,
		ProductID:   1,
		ProductName: "Widget",
		Quantity:    1,
		PriceAtTime: decimal.RequireFromString("10.00"),
	}
	require.NoError(t, db.Create(item).Error)
	return order
}

func TestGenerateOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	re := regexp.MustCompile(fmt.Sprintf(`^ORD-%d-\d{1,3}$`, now.UnixMilli()))

	for i := 0; i < 50; i++ {
		number := GenerateOrderNumber(now)
		if !re.MatchString(number) {
			t.Fatalf("unexpected order number %q", number)
		}
	}
}

func TestCalculateTotal(t *testing.T) {
	items := []models.CartItem{
		{Quantity: 2, PriceAtTime: decimal.RequireFromString("18.50")},
		{Quantity: 3, PriceAtTime: decimal.RequireFromString("5.00")},
	}
	total := CalculateTotal(items)
	assert.True(t, total.Equal(decimal.RequireFromString("52.00")), "got %s", total)

	assert.True(t, CalculateTotal(nil).IsZero())
}

func TestListByUserPaginatesNewestFirst(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedOrder(t, db, 7, fmt.Sprintf("ORD-1-%d", i), base.Add(time.Duration(i)*time.Hour))
	}
	seedOrder(t, db, 8, "ORD-2-0", base)

	list, err := svc.ListByUser(context.Background(), 7, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, list.Orders, 2)
	assert.Equal(t, int64(5), list.Pagination.Total, "other users' orders must not count")
	assert.Equal(t, "ORD-1-4", list.Orders[0].OrderNumber, "newest first")
	assert.Equal(t, "ORD-1-3", list.Orders[1].OrderNumber)
}

func TestGetForUserScopesToOwner(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	order := seedOrder(t, db, 7, "ORD-1-0", time.Now().UTC())

	found, err := svc.GetForUser(context.Background(), order.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, found.OrderNumber)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Widget", found.Items[0].ProductName)

	_, err = svc.GetForUser(context.Background(), order.ID, 8)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, "Order not found", typed.Message())
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	err := repo.UpdateStatus(context.Background(), 999, enums.OrderStatusCompleted.String())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
