package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shoplane/shoplane-backend/pkg/db/models"
	"github.com/shoplane/shoplane-backend/pkg/pagination"
	"github.com/shoplane/shoplane-backend/pkg/types"
)

// ItemDTO is one frozen order line.
type ItemDTO struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderDTO is the transport shape for a placed order.
type OrderDTO struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	OrderNumber     string          `json:"order_number"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	ShippingAddress types.JSONMap   `json:"shipping_address,omitempty"`
	BillingAddress  types.JSONMap   `json:"billing_address,omitempty"`
	Items           []ItemDTO       `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderListDTO pairs an order page with its pagination metadata.
type OrderListDTO struct {
	Orders     []OrderDTO      `json:"orders"`
	Pagination pagination.Meta `json:"pagination"`
}

func itemFromModel(item *models.OrderItem) ItemDTO {
	return ItemDTO{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		PriceAtTime: item.PriceAtTime,
		Subtotal:    item.PriceAtTime.Mul(decimal.NewFromInt(int64(item.Quantity))),
	}
}

// FromModel converts an order with optional preloaded items.
func FromModel(o *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderNumber:     o.OrderNumber,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if len(o.Items) > 0 {
		items := make([]ItemDTO, 0, len(o.Items))
		for i := range o.Items {
			items = append(items, itemFromModel(&o.Items[i]))
		}
		dto.Items = items
	}
	return dto
}
