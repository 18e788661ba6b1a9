package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shoplane/shoplane-backend/pkg/db/models"
)

// ItemDTO is one cart line joined with live product display fields.
type ItemDTO struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Stock       int             `json:"stock_quantity"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CartDTO is the cart view returned by GET /cart. TotalItems counts rows,
// not quantities.
type CartDTO struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Items      []ItemDTO `json:"items"`
	TotalItems int       `json:"total_items"`
}

// AddItemRequest is the payload for POST /cart/items.
type AddItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// UpdateItemRequest is the payload for PUT /cart/items/:id.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

func itemFromModel(item *models.CartItem) ItemDTO {
	dto := ItemDTO{
		ID:          item.ID,
		ProductID:   item.ProductID,
		Quantity:    item.Quantity,
		PriceAtTime: item.PriceAtTime,
		Subtotal:    item.PriceAtTime.Mul(decimal.NewFromInt(int64(item.Quantity))),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
	if item.Product != nil {
		dto.Name = item.Product.Name
		dto.Description = item.Product.Description
		dto.ImageURL = item.Product.ImageURL
		dto.Stock = item.Product.StockQuantity
	}
	return dto
}
