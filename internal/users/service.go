package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/pkg/db/models"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, dto UpdateProfileDTO) (*models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	Deactivate(ctx context.Context, id int64) error
}

// Service exposes profile operations for the authenticated user plus the
// admin-only account management endpoints.
type Service interface {
	GetProfile(ctx context.Context, userID int64) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID int64, dto UpdateProfileDTO) (*UserDTO, error)
	ListUsers(ctx context.Context) ([]*UserSummaryDTO, error)
	DeactivateUser(ctx context.Context, userID int64) error
}

type service struct {
	repo userRepository
}

// NewService builds the users service.
func NewService(repo userRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetProfile(ctx context.Context, userID int64) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID int64, dto UpdateProfileDTO) (*UserDTO, error) {
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	user, err := s.repo.UpdateProfile(ctx, userID, dto)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return FromModel(user), nil
}

func (s *service) ListUsers(ctx context.Context) ([]*UserSummaryDTO, error) {
	users, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	summaries := make([]*UserSummaryDTO, 0, len(users))
	for i := range users {
		summaries = append(summaries, SummaryFromModel(&users[i]))
	}
	return summaries, nil
}

func (s *service) DeactivateUser(ctx context.Context, userID int64) error {
	if err := s.repo.Deactivate(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate user")
	}
	return nil
}
