package models

import (
	"time"

	"github.com/shoplane/shoplane-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID           int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Username     string         `gorm:"column:username;type:varchar(50);not null;uniqueIndex"`
	Email        string         `gorm:"column:email;type:varchar(100);not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	FirstName    *string        `gorm:"column:first_name;type:varchar(50)"`
	LastName     *string        `gorm:"column:last_name;type:varchar(50)"`
	Phone        *string        `gorm:"column:phone;type:varchar(20)"`
	Address      *string        `gorm:"column:address"`
	City         *string        `gorm:"column:city;type:varchar(100)"`
	State        *string        `gorm:"column:state;type:varchar(50)"`
	ZipCode      *string        `gorm:"column:zip_code;type:varchar(20)"`
	Country      string         `gorm:"column:country;type:varchar(50);not null;default:'USA'"`
	Role         enums.UserRole `gorm:"column:role;type:varchar(20);not null;default:'customer'"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
