package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"stockai-backend/internal/features/auth/models"
	"stockai-backend/internal/features/auth/repository"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.SessionRepository {
	return &postgresRepository{db: db}
}

// Create stores a new session row.
func (r *postgresRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO user_sessions (session_token, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_token) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, session.Token, session.UserID, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetUserID joins through user_sessions to the owning user id.
func (r *postgresRepository) GetUserID(ctx context.Context, token string) (string, error) {
	query := `
		SELECT u.id
		FROM user_sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.session_token = $1
		  AND (s.expires_at IS NULL OR s.expires_at > NOW())
		LIMIT 1
	`

	var userID string
	err := r.db.QueryRowContext(ctx, query, token).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", repository.ErrSessionNotFound
		}
		return "", fmt.Errorf("failed to resolve session: %w", err)
	}

	return userID, nil
}

// Delete removes a session row.
func (r *postgresRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM user_sessions WHERE session_token = $1", token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
