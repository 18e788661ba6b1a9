package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shoplane/shoplane-backend/pkg/db/models"
	"github.com/shoplane/shoplane-backend/pkg/pagination"
)

// ProductDTO is the transport shape for catalog listings.
type ProductDTO struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CategoryID    *int64          `json:"category_id,omitempty"`
	CategoryName  *string         `json:"category_name,omitempty"`
	ImageURL      *string         `json:"image_url,omitempty"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CategoryDTO is the transport shape for categories.
type CategoryDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductListDTO pairs a product page with its pagination metadata.
type ProductListDTO struct {
	Products   []ProductDTO    `json:"products"`
	Pagination pagination.Meta `json:"pagination"`
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Search     string
	CategoryID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Pagination pagination.Params
}

// CreateProductDTO holds the fields required to list a new product.
type CreateProductDTO struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Description   *string         `json:"description,omitempty"`
	SKU           string          `json:"sku" validate:"required,max=50"`
	Price         decimal.Decimal `json:"price" validate:"required"`
	StockQuantity int             `json:"stock_quantity" validate:"min=0"`
	CategoryID    *int64          `json:"category_id,omitempty"`
	ImageURL      *string         `json:"image_url,omitempty"`
}

// UpdateProductDTO carries optional product mutations; nil fields are kept.
type UpdateProductDTO struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	StockQuantity *int             `json:"stock_quantity,omitempty"`
	CategoryID    *int64           `json:"category_id,omitempty"`
	ImageURL      *string          `json:"image_url,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
}

func productFromModel(p *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		SKU:           p.SKU,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		CategoryID:    p.CategoryID,
		ImageURL:      p.ImageURL,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Category != nil {
		dto.CategoryName = &p.Category.Name
	}
	return dto
}

func categoryFromModel(c *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}
