package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog listing available for purchase.
type Product struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name          string          `gorm:"column:name;type:varchar(200);not null"`
	Description   *string         `gorm:"column:description"`
	SKU           string          `gorm:"column:sku;type:varchar(50);not null;uniqueIndex"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	StockQuantity int             `gorm:"column:stock_quantity;not null;default:0"`
	CategoryID    *int64          `gorm:"column:category_id;index"`
	Category      *Category       `gorm:"foreignKey:CategoryID"`
	ImageURL      *string         `gorm:"column:image_url"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
