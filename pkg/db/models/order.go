package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shoplane/shoplane-backend/pkg/enums"
	"github.com/shoplane/shoplane-backend/pkg/types"
)

// Order is the immutable record produced from a checkout.
type Order struct {
	ID              int64             `gorm:"column:id;primaryKey;autoIncrement"`
	UserID          int64             `gorm:"column:user_id;not null;index"`
	OrderNumber     string            `gorm:"column:order_number;type:varchar(50);not null;uniqueIndex"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:varchar(20);not null;default:'pending'"`
	ShippingAddress types.JSONMap     `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	BillingAddress  types.JSONMap     `gorm:"column:billing_address;type:jsonb;serializer:json"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
