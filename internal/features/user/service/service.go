package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"stockai-backend/internal/features/user/models"
	"stockai-backend/internal/features/user/repository"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrNoDatabase   = errors.New("database not configured")
)

type UserService interface {
	GetUser(ctx context.Context, id string) (*models.UserResponse, error)
	GetOrCreateByEmail(ctx context.Context, id, email string) (*models.User, error)
	GrantAccess(ctx context.Context, id string, product string) error
	RevokeAccess(ctx context.Context, id string) error
	HasAccess(ctx context.Context, id string, product string) (bool, error)
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService builds the user service. A nil repository puts the service
// in the degenerate no-database mode: lookups fail with ErrNoDatabase and
// entitlement writes are no-ops.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{
		repo: repo,
	}
}

func (s *userService) GetUser(ctx context.Context, id string) (*models.UserResponse, error) {
	if s.repo == nil {
		return nil, ErrNoDatabase
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return ToUserResponse(user), nil
}

func (s *userService) GetOrCreateByEmail(ctx context.Context, id, email string) (*models.User, error) {
	if s.repo == nil {
		return nil, ErrNoDatabase
	}

	user, err := s.repo.GetByID(ctx, id)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	// The email is the stable key: an account created under a different id
	// for the same address must not be duplicated.
	user, err = s.repo.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	newUser := &models.User{
		ID:        id,
		Email:     email,
		Name:      DisplayName(email),
		Balance:   models.DefaultBalance,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.repo.Upsert(ctx, newUser); err != nil {
		return nil, err
	}

	return newUser, nil
}

func (s *userService) GrantAccess(ctx context.Context, id string, product string) error {
	if s.repo == nil {
		return ErrNoDatabase
	}
	return s.repo.SetEntitlement(ctx, id, product)
}

func (s *userService) RevokeAccess(ctx context.Context, id string) error {
	if s.repo == nil {
		return ErrNoDatabase
	}
	return s.repo.ClearEntitlements(ctx, id)
}

func (s *userService) HasAccess(ctx context.Context, id string, product string) (bool, error) {
	if s.repo == nil {
		return false, ErrNoDatabase
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}

	if product == "top_gainers" {
		return user.IsTopGainerPaid, nil
	}
	return user.IsPredictionPaid, nil
}

// ToUserResponse converts the storage model to the client snapshot.
func ToUserResponse(user *models.User) *models.UserResponse {
	return &models.UserResponse{
		ID:               user.ID,
		Email:            user.Email,
		Name:             user.Name,
		Balance:          user.Balance,
		IsPredictionPaid: user.IsPredictionPaid,
		IsTopGainerPaid:  user.IsTopGainerPaid,
	}
}

// DisplayName derives a human-readable name from an email address.
func DisplayName(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
