package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shoplane/shoplane-backend/pkg/db/models"
)

// Repository exposes cart persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository clone bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindOrCreate returns the user's cart, creating the header row on first use.
func (r *Repository) FindOrCreate(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = models.Cart{UserID: userID}
	if createErr := r.db.WithContext(ctx).Create(&cart).Error; createErr != nil {
		// Lost a create race: the other request's row wins.
		var existing models.Cart
		if findErr := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; findErr == nil {
			return &existing, nil
		}
		return nil, createErr
	}
	return &cart, nil
}

// FindByIDForUser loads a cart only when it belongs to the given user.
func (r *Repository) FindByIDForUser(ctx context.Context, cartID, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", cartID, userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// LockByIDForUser loads the cart row FOR UPDATE, serializing checkouts.
// sqlite has no row locks; writes there serialize on the database lock.
func (r *Repository) LockByIDForUser(ctx context.Context, cartID, userID int64) (*models.Cart, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var cart models.Cart
	err := q.
		Where("id = ? AND user_id = ?", cartID, userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// ListItems returns the cart's lines with their products preloaded.
func (r *Repository) ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindItem loads one line by cart and product.
func (r *Repository) FindItem(ctx context.Context, cartID, productID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemByID loads one line scoped to its cart. Cross-cart ids surface as
// gorm.ErrRecordNotFound.
func (r *Repository) FindItemByID(ctx context.Context, cartID, itemID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateItem overwrites a line's quantity and price snapshot.
func (r *Repository) UpdateItem(ctx context.Context, itemID int64, quantity int, price decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"quantity": quantity, "price_at_time": price}).Error
}

// DeleteItem removes one line.
func (r *Repository) DeleteItem(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", itemID).Error
}

// ClearItems removes every line in the cart.
func (r *Repository) ClearItems(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "cart_id = ?", cartID).Error
}
