package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/pkg/db"
	"github.com/shoplane/shoplane-backend/pkg/db/models"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
	"github.com/shoplane/shoplane-backend/pkg/pagination"
)

var (
	minPrice = decimal.NewFromFloat(0.01)
	skuRe    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Service exposes catalog browsing and management operations.
type Service interface {
	ListProducts(ctx context.Context, filter ProductFilter) (*ProductListDTO, error)
	GetProduct(ctx context.Context, id int64) (*ProductDTO, error)
	CreateProduct(ctx context.Context, input CreateProductDTO) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id int64, input UpdateProductDTO) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	ListCategoryProducts(ctx context.Context, categoryID int64, page pagination.Params) (*ProductListDTO, error)
}

type catalogRepository interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	FindProductByID(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, changes map[string]any) (*models.Product, error)
	DeactivateProduct(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategoryByID(ctx context.Context, id int64) (*models.Category, error)
}

type service struct {
	repo catalogRepository
}

// NewService constructs a catalog service with the provided repository.
func NewService(repo catalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, filter ProductFilter) (*ProductListDTO, error) {
	products, total, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return buildProductList(products, filter.Pagination, total), nil
}

func (s *service) GetProduct(ctx context.Context, id int64) (*ProductDTO, error) {
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	dto := productFromModel(product)
	return &dto, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductDTO) (*ProductDTO, error) {
	sku := strings.TrimSpace(input.SKU)
	if !skuRe.MatchString(sku) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "SKU may only contain letters, digits, hyphens, and underscores")
	}
	if input.Price.LessThan(minPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Price must be at least 0.01")
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Stock quantity cannot be negative")
	}
	if input.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "Category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
		}
	}

	product := &models.Product{
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		SKU:           sku,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		CategoryID:    input.CategoryID,
		ImageURL:      input.ImageURL,
		IsActive:      true,
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "A product with this SKU already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	dto := productFromModel(created)
	return &dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, id int64, input UpdateProductDTO) (*ProductDTO, error) {
	if _, err := s.repo.FindProductByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	changes := map[string]any{}
	if input.Name != nil {
		changes["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		changes["description"] = *input.Description
	}
	if input.Price != nil {
		if input.Price.LessThan(minPrice) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Price must be at least 0.01")
		}
		changes["price"] = *input.Price
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Stock quantity cannot be negative")
		}
		changes["stock_quantity"] = *input.StockQuantity
	}
	if input.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "Category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
		}
		changes["category_id"] = *input.CategoryID
	}
	if input.ImageURL != nil {
		changes["image_url"] = *input.ImageURL
	}
	if input.IsActive != nil {
		changes["is_active"] = *input.IsActive
	}

	updated, err := s.repo.UpdateProduct(ctx, id, changes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	dto := productFromModel(updated)
	return &dto, nil
}

func (s *service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.DeactivateProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate product")
	}
	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	dtos := make([]CategoryDTO, 0, len(categories))
	for i := range categories {
		dtos = append(dtos, categoryFromModel(&categories[i]))
	}
	return dtos, nil
}

func (s *service) ListCategoryProducts(ctx context.Context, categoryID int64, page pagination.Params) (*ProductListDTO, error) {
	if _, err := s.repo.FindCategoryByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}

	filter := ProductFilter{CategoryID: &categoryID, Pagination: page}
	products, total, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list category products")
	}
	return buildProductList(products, page, total), nil
}

func buildProductList(products []models.Product, page pagination.Params, total int64) *ProductListDTO {
	dtos := make([]ProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, productFromModel(&products[i]))
	}
	return &ProductListDTO{
		Products:   dtos,
		Pagination: pagination.NewMeta(page, total),
	}
}
