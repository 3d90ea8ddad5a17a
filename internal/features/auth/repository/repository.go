package repository

import (
	"context"
	"errors"

	"stockai-backend/internal/features/auth/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	// GetUserID resolves a stored token to the owning user id.
	GetUserID(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}
