package repository

import (
	"context"
	"errors"

	"stockai-backend/internal/features/user/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	// SetEntitlement sets the single flag matching product ("top_gainers"
	// sets is_top_gainer_paid, anything else is_prediction_paid). Repeating
	// the call converges to the same state.
	SetEntitlement(ctx context.Context, id string, product string) error
	// ClearEntitlements clears both flags together.
	ClearEntitlements(ctx context.Context, id string) error
}
