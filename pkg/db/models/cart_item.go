package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one product line inside a cart. PriceAtTime is refreshed to the
// current product price whenever the line is added or its quantity changes.
type CartItem struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	CartID      int64           `gorm:"column:cart_id;not null;uniqueIndex:idx_cart_items_cart_product"`
	ProductID   int64           `gorm:"column:product_id;not null;uniqueIndex:idx_cart_items_cart_product"`
	Product     *Product        `gorm:"foreignKey:ProductID"`
	Quantity    int             `gorm:"column:quantity;not null"`
	PriceAtTime decimal.Decimal `gorm:"column:price_at_time;type:numeric(10,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
