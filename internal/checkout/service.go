package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/internal/cart"
	"github.com/shoplane/shoplane-backend/internal/catalog"
	"github.com/shoplane/shoplane-backend/internal/orders"
	"github.com/shoplane/shoplane-backend/pkg/db"
	"github.com/shoplane/shoplane-backend/pkg/db/models"
	"github.com/shoplane/shoplane-backend/pkg/enums"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
)

const orderNumberAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service executes the cart-to-order checkout workflow.
type Service interface {
	Checkout(ctx context.Context, userID, cartID int64, req Request) (*Summary, error)
}

type service struct {
	tx          txRunner
	cartRepo    *cart.Repository
	catalogRepo *catalog.Repository
	ordersRepo  *orders.Repository
	now         func() time.Time
}

// ServiceParams wires checkout dependencies.
type ServiceParams struct {
	Tx          txRunner
	CartRepo    *cart.Repository
	CatalogRepo *catalog.Repository
	OrdersRepo  *orders.Repository
	Now         func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.CatalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		tx:          params.Tx,
		cartRepo:    params.CartRepo,
		catalogRepo: params.CatalogRepo,
		ordersRepo:  params.OrdersRepo,
		now:         params.Now,
	}, nil
}

func (s *service) Checkout(ctx context.Context, userID, cartID int64, req Request) (*Summary, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if cartID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid cart ID")
	}

	var summary *Summary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		catalogRepo := s.catalogRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		record, err := cartRepo.LockByIDForUser(ctx, cartID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Cart not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock cart")
		}

		items, err := cartRepo.ListItems(ctx, record.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart items")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "Cart is empty")
		}

		if err := ValidatePayment(req.PaymentDetails, s.now()); err != nil {
			var payErr *PaymentError
			if errors.As(err, &payErr) {
				if payErr.Missing {
					return pkgerrors.New(pkgerrors.CodeValidation, payErr.Error())
				}
				return pkgerrors.New(pkgerrors.CodePaymentInvalid, payErr.Error())
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "validate payment")
		}

		for _, item := range items {
			ok, err := catalogRepo.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, insufficientStockMessage(item)).
					WithDetails(map[string]any{"product_id": item.ProductID})
			}
		}

		order, err := s.createOrder(ctx, ordersRepo, userID, req, items)
		if err != nil {
			return err
		}

		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			orderItems = append(orderItems, models.OrderItem{
				OrderID:     order.ID,
				ProductID:   item.ProductID,
				ProductName: productName(item),
				Quantity:    item.Quantity,
				PriceAtTime: item.PriceAtTime,
			})
		}
		if err := ordersRepo.CreateItems(ctx, orderItems); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order items")
		}

		if err := cartRepo.ClearItems(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}

		summary = &Summary{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			TotalAmount: order.TotalAmount,
			Status:      order.Status.String(),
			ItemsCount:  len(items),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// createOrder inserts the order row, retrying on an order number collision.
func (s *service) createOrder(ctx context.Context, repo *orders.Repository, userID int64, req Request, items []models.CartItem) (*models.Order, error) {
	total := orders.CalculateTotal(items)

	// Shipping falls back to billing when omitted; a nil map is stored as an
	// empty object by the JSONMap column type.
	shipping := req.ShippingAddress
	if shipping == nil {
		shipping = req.BillingAddress
	}

	var lastErr error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order := &models.Order{
			UserID:          userID,
			OrderNumber:     orders.GenerateOrderNumber(s.now()),
			TotalAmount:     total,
			Status:          enums.OrderStatusPending,
			ShippingAddress: shipping,
			BillingAddress:  req.BillingAddress,
		}
		created, err := repo.Create(ctx, order)
		if err == nil {
			return created, nil
		}
		if !isOrderNumberCollision(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		lastErr = err
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, lastErr, "create order: order number collisions exhausted")
}

// isOrderNumberCollision treats any unique violation on the orders insert as
// an order number collision; order_number carries the table's only unique
// constraint.
func isOrderNumberCollision(err error) bool {
	return db.IsUniqueViolation(err, "")
}

func productName(item models.CartItem) string {
	if item.Product != nil {
		return item.Product.Name
	}
	return ""
}

func insufficientStockMessage(item models.CartItem) string {
	name := productName(item)
	if name == "" {
		return "Insufficient stock for product"
	}
	return fmt.Sprintf("Insufficient stock for product: %s", name)
}
