package auth

import "github.com/shoplane/shoplane-backend/internal/users"

// RegisterRequest captures the payload for creating a new account.
type RegisterRequest struct {
	Username  string  `json:"username" validate:"required,min=3,max=50"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse contains the token and user produced by register/login/refresh.
type AuthResponse struct {
	Token string         `json:"token"`
	User  *users.UserDTO `json:"user"`
}
