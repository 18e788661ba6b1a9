package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/pkg/db/models"
)

// Repository exposes catalog persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository clone bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListProducts returns the active products matching the filter plus the total count.
func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ?", true)

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	// Session makes the chain safe to reuse for both the count and the page
	// query without statement conditions leaking between them.
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Pagination.Normalize()
	var products []models.Product
	err := query.
		Preload("Category").
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(filter.Pagination.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// FindProductByID loads a product regardless of its active flag.
func (r *Repository) FindProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new product.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct applies the provided column changes and reloads the row.
func (r *Repository) UpdateProduct(ctx context.Context, id int64, changes map[string]any) (*models.Product, error) {
	if len(changes) > 0 {
		if err := r.db.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ?", id).
			Updates(changes).Error; err != nil {
			return nil, err
		}
	}
	return r.FindProductByID(ctx, id)
}

// DeactivateProduct soft-deletes the product by clearing its active flag.
func (r *Repository) DeactivateProduct(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock debits stock only when enough cover remains. A zero
// RowsAffected result means the conditional guard failed.
func (r *Repository) DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindCategoryByID loads a single category.
func (r *Repository) FindCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
