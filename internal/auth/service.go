package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/internal/users"
	pkgAuth "github.com/shoplane/shoplane-backend/pkg/auth"
	"github.com/shoplane/shoplane-backend/pkg/auth/session"
	"github.com/shoplane/shoplane-backend/pkg/config"
	"github.com/shoplane/shoplane-backend/pkg/db"
	"github.com/shoplane/shoplane-backend/pkg/db/models"
	"github.com/shoplane/shoplane-backend/pkg/enums"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
	"github.com/shoplane/shoplane-backend/pkg/security"
)

const invalidCredentialsMessage = "Invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, userID int64, tokenID string) error
	Me(ctx context.Context, userID int64) (*users.UserDTO, error)
	Refresh(ctx context.Context, userID int64, tokenID string) (*AuthResponse, error)
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

type sessionManager interface {
	Register(ctx context.Context, userID int64, tokenID string) error
	Rotate(ctx context.Context, userID int64, oldTokenID string) (string, error)
	Revoke(ctx context.Context, userID int64, tokenID string) error
}

type service struct {
	users       userRepository
	session     sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		users:       params.UserRepo,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "User with this email or username already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "User with this email or username already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         enums.UserRoleCustomer,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "User with this email or username already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	return s.issueToken(ctx, user, time.Now().UTC())
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now, err := s.recordLogin(ctx, user)
	if err != nil {
		return nil, err
	}

	return s.issueToken(ctx, user, now)
}

func (s *service) Logout(ctx context.Context, userID int64, tokenID string) error {
	if err := s.session.Revoke(ctx, userID, tokenID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

func (s *service) Me(ctx context.Context, userID int64) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return users.FromModel(user), nil
}

func (s *service) Refresh(ctx context.Context, userID int64, tokenID string) (*AuthResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "invalid session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "invalid session")
	}

	newTokenID, err := s.session.Rotate(ctx, userID, tokenID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "invalid session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	token, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		JTI:      newTokenID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &AuthResponse{Token: token, User: users.FromModel(user)}, nil
}

func (s *service) issueToken(ctx context.Context, user *models.User, now time.Time) (*AuthResponse, error) {
	tokenID := session.NewTokenID()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		JTI:      tokenID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	if err := s.session.Register(ctx, user.ID, tokenID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store session")
	}

	return &AuthResponse{Token: token, User: users.FromModel(user)}, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) recordLogin(ctx context.Context, user *models.User) (time.Time, error) {
	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now
	return now, nil
}
