package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem freezes the product name and unit price as they were at checkout.
type OrderItem struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID     int64           `gorm:"column:order_id;not null;index"`
	ProductID   int64           `gorm:"column:product_id;not null"`
	Product     *Product        `gorm:"foreignKey:ProductID"`
	ProductName string          `gorm:"column:product_name;type:varchar(200);not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	PriceAtTime decimal.Decimal `gorm:"column:price_at_time;type:numeric(10,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
