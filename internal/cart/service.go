package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/pkg/db/models"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
)

// Service exposes the per-user cart operations.
type Service interface {
	View(ctx context.Context, userID int64) (*CartDTO, error)
	AddItem(ctx context.Context, userID int64, req AddItemRequest) (*CartDTO, bool, error)
	UpdateItem(ctx context.Context, userID, itemID int64, req UpdateItemRequest) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID int64) (*CartDTO, error)
	Clear(ctx context.Context, userID int64) (*CartDTO, error)
}

type cartRepository interface {
	FindOrCreate(ctx context.Context, userID int64) (*models.Cart, error)
	ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	FindItem(ctx context.Context, cartID, productID int64) (*models.CartItem, error)
	FindItemByID(ctx context.Context, cartID, itemID int64) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItem(ctx context.Context, itemID int64, quantity int, price decimal.Decimal) error
	DeleteItem(ctx context.Context, itemID int64) error
	ClearItems(ctx context.Context, cartID int64) error
}

type productLoader interface {
	FindProductByID(ctx context.Context, id int64) (*models.Product, error)
}

type service struct {
	repo     cartRepository
	products productLoader
}

// NewService constructs a cart service with the provided dependencies.
func NewService(repo cartRepository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader is required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) View(ctx context.Context, userID int64) (*CartDTO, error) {
	cart, err := s.repo.FindOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return s.buildView(ctx, cart)
}

// AddItem upserts a line for the product, re-pricing it from the live product
// price. The bool result reports whether a new line was created.
func (s *service) AddItem(ctx context.Context, userID int64, req AddItemRequest) (*CartDTO, bool, error) {
	cart, err := s.repo.FindOrCreate(ctx, userID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	product, err := s.loadActiveProduct(ctx, req.ProductID)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.repo.FindItem(ctx, cart.ID, product.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}

	created := existing == nil
	newQuantity := req.Quantity
	if existing != nil {
		newQuantity += existing.Quantity
	}
	if newQuantity > product.StockQuantity {
		return nil, false, pkgerrors.New(pkgerrors.CodeInsufficientStock, "Requested quantity exceeds available stock").
			WithDetails(map[string]any{"available": product.StockQuantity})
	}

	if created {
		item := &models.CartItem{
			CartID:      cart.ID,
			ProductID:   product.ID,
			Quantity:    newQuantity,
			PriceAtTime: product.Price,
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			// Concurrent add for the same product: fold into the winner's row.
			if retry, retryErr := s.repo.FindItem(ctx, cart.ID, product.ID); retryErr == nil {
				created = false
				newQuantity = retry.Quantity + req.Quantity
				if newQuantity > product.StockQuantity {
					return nil, false, pkgerrors.New(pkgerrors.CodeInsufficientStock, "Requested quantity exceeds available stock").
						WithDetails(map[string]any{"available": product.StockQuantity})
				}
				if err := s.repo.UpdateItem(ctx, retry.ID, newQuantity, product.Price); err != nil {
					return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
				}
			} else {
				return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart item")
			}
		}
	} else {
		if err := s.repo.UpdateItem(ctx, existing.ID, newQuantity, product.Price); err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
		}
	}

	view, err := s.buildView(ctx, cart)
	if err != nil {
		return nil, false, err
	}
	return view, created, nil
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID int64, req UpdateItemRequest) (*CartDTO, error) {
	cart, err := s.repo.FindOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	item, err := s.findOwnedItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, err
	}

	product, err := s.loadActiveProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if req.Quantity > product.StockQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "Requested quantity exceeds available stock").
			WithDetails(map[string]any{"available": product.StockQuantity})
	}

	if err := s.repo.UpdateItem(ctx, item.ID, req.Quantity, product.Price); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
	}
	return s.buildView(ctx, cart)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID int64) (*CartDTO, error) {
	cart, err := s.repo.FindOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	item, err := s.findOwnedItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
	}
	return s.buildView(ctx, cart)
}

func (s *service) Clear(ctx context.Context, userID int64) (*CartDTO, error) {
	cart, err := s.repo.FindOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return s.buildView(ctx, cart)
}

func (s *service) buildView(ctx context.Context, cart *models.Cart) (*CartDTO, error) {
	items, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart items")
	}

	dtos := make([]ItemDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, itemFromModel(&items[i]))
	}
	return &CartDTO{
		ID:         cart.ID,
		UserID:     cart.UserID,
		Items:      dtos,
		TotalItems: len(dtos),
	}, nil
}

// findOwnedItem resolves cross-user lookups to NotFound so the response never
// confirms whether the id exists for someone else.
func (s *service) findOwnedItem(ctx context.Context, cartID, itemID int64) (*models.CartItem, error) {
	item, err := s.repo.FindItemByID(ctx, cartID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	return item, nil
}

func (s *service) loadActiveProduct(ctx context.Context, productID int64) (*models.Product, error) {
	product, err := s.products.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	return product, nil
}
