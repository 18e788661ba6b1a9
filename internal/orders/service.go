package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/pkg/db/models"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
	"github.com/shoplane/shoplane-backend/pkg/pagination"
)

// Service exposes order history lookups.
type Service interface {
	ListByUser(ctx context.Context, userID int64, page pagination.Params) (*OrderListDTO, error)
	GetForUser(ctx context.Context, orderID, userID int64) (*OrderDTO, error)
}

type orderRepository interface {
	ListByUser(ctx context.Context, userID int64, page pagination.Params) ([]models.Order, int64, error)
	FindByIDForUser(ctx context.Context, orderID, userID int64) (*models.Order, error)
}

type service struct {
	repo orderRepository
}

// NewService constructs an orders service with the provided repository.
func NewService(repo orderRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListByUser(ctx context.Context, userID int64, page pagination.Params) (*OrderListDTO, error) {
	orders, total, err := s.repo.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	dtos := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, FromModel(&orders[i]))
	}
	return &OrderListDTO{
		Orders:     dtos,
		Pagination: pagination.NewMeta(page, total),
	}, nil
}

// GetForUser resolves another user's order id to NotFound, never Forbidden.
func (s *service) GetForUser(ctx context.Context, orderID, userID int64) (*OrderDTO, error) {
	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	dto := FromModel(order)
	return &dto, nil
}

// GenerateOrderNumber formats a display identifier as ORD-{millis}-{0-999}.
// Collisions in the same millisecond are possible; the unique index plus
// insert retry in checkout absorbs them.
func GenerateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%d", now.UnixMilli(), rand.Intn(1000))
}

// CalculateTotal sums price_at_time * quantity over the given cart lines.
func CalculateTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		line := items[i].PriceAtTime.Mul(decimal.NewFromInt(int64(items[i].Quantity)))
		total = total.Add(line)
	}
	return total
}
