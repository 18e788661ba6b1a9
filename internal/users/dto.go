package users

import (
	"time"

	"github.com/shoplane/shoplane-backend/pkg/db/models"
	"github.com/shoplane/shoplane-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   *string    `json:"first_name,omitempty"`
	LastName    *string    `json:"last_name,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Address     *string    `json:"address,omitempty"`
	City        *string    `json:"city,omitempty"`
	State       *string    `json:"state,omitempty"`
	ZipCode     *string    `json:"zip_code,omitempty"`
	Country     string     `json:"country"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UserSummaryDTO is the abbreviated shape returned by the admin user listing.
type UserSummaryDTO struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SummaryFromModel projects a user model onto the listing shape.
func SummaryFromModel(u *models.User) *UserSummaryDTO {
	if u == nil {
		return nil
	}

	return &UserSummaryDTO{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UpdateProfileDTO carries the optional profile fields a user may change.
// Nil fields are left untouched.
type UpdateProfileDTO struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	City      *string `json:"city,omitempty"`
	State     *string `json:"state,omitempty"`
	ZipCode   *string `json:"zip_code,omitempty"`
	Country   *string `json:"country,omitempty"`
}

// Changes returns the column updates represented by the DTO.
func (u UpdateProfileDTO) Changes() map[string]any {
	changes := map[string]any{}
	if u.FirstName != nil {
		changes["first_name"] = *u.FirstName
	}
	if u.LastName != nil {
		changes["last_name"] = *u.LastName
	}
	if u.Phone != nil {
		changes["phone"] = *u.Phone
	}
	if u.Address != nil {
		changes["address"] = *u.Address
	}
	if u.City != nil {
		changes["city"] = *u.City
	}
	if u.State != nil {
		changes["state"] = *u.State
	}
	if u.ZipCode != nil {
		changes["zip_code"] = *u.ZipCode
	}
	if u.Country != nil {
		changes["country"] = *u.Country
	}
	return changes
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    *string
	LastName     *string
	Role         enums.UserRole
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		Address:     u.Address,
		City:        u.City,
		State:       u.State,
		ZipCode:     u.ZipCode,
		Country:     u.Country,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.UserRoleCustomer
	}

	return &models.User{
		Username:     c.Username,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Role:         role,
		IsActive:     true,
	}
}
