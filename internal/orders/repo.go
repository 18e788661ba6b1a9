package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/pkg/db/models"
	"github.com/shoplane/shoplane-backend/pkg/pagination"
)

// Repository exposes order persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository clone bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the order header.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// CreateItems bulk-inserts the frozen order lines.
func (r *Repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// ListByUser returns one page of the user's orders, newest first, with the
// total count for pagination.
func (r *Repository) ListByUser(ctx context.Context, userID int64, page pagination.Params) ([]models.Order, int64, error) {
	// Session makes the chain safe to reuse for both the count and the page
	// query without statement conditions leaking between them.
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	normalized := page.Normalize()
	var orders []models.Order
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Limit(normalized.Limit).
		Offset(page.Offset()).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// FindByIDForUser loads an order with items only when it belongs to the user.
func (r *Repository) FindByIDForUser(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus transitions the order's lifecycle status.
func (r *Repository) UpdateStatus(ctx context.Context, orderID int64, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
