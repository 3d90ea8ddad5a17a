package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"stockai-backend/internal/features/user/models"
	"stockai-backend/internal/features/user/repository"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.UserRepository {
	return &postgresRepository{db: db}
}

const userColumns = "id, email, name, balance, is_prediction_paid, is_top_gainer_paid, created_at, updated_at"

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.Balance,
		&user.IsPredictionPaid, &user.IsTopGainerPaid,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetByID returns the user with the given id.
func (r *postgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail returns the user with the given email.
func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE email = $1", userColumns)
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// Upsert creates the user or refreshes mutable profile fields. Entitlement
// flags are deliberately left alone on conflict.
func (r *postgresRepository) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, balance)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.Name, user.Balance)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

// SetEntitlement sets the paid flag for product on the user row.
func (r *postgresRepository) SetEntitlement(ctx context.Context, id string, product string) error {
	column := "is_prediction_paid"
	if product == "top_gainers" {
		column = "is_top_gainer_paid"
	}

	query := fmt.Sprintf("UPDATE users SET %s = true, updated_at = NOW() WHERE id = $1", column)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to set entitlement: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// ClearEntitlements clears both paid flags on the user row.
func (r *postgresRepository) ClearEntitlements(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET is_prediction_paid = false, is_top_gainer_paid = false, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to clear entitlements: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}
