package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"stockai-backend/internal/features/payments/models"
	"stockai-backend/internal/features/payments/repository"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.OrderRepository {
	return &postgresRepository{db: db}
}

// Create inserts a payment order. ON CONFLICT DO NOTHING keeps the call
// idempotent when the same order id is created twice.
func (r *postgresRepository) Create(ctx context.Context, order *models.PaymentOrder) error {
	query := `
		INSERT INTO payment_orders (order_id, user_id, amount, currency, status, payment_gateway, product_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (order_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		order.OrderID, order.UserID, order.Amount, order.Currency,
		order.Status, order.PaymentGateway, order.ProductType)
	if err != nil {
		return fmt.Errorf("failed to create payment order: %w", err)
	}

	return nil
}

const orderColumns = "order_id, user_id, amount, currency, status, payment_gateway, product_type, payment_id, created_at"

func scanOrder(row *sql.Row) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	var paymentID sql.NullString

	err := row.Scan(
		&order.OrderID, &order.UserID, &order.Amount, &order.Currency,
		&order.Status, &order.PaymentGateway, &order.ProductType,
		&paymentID, &order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get payment order: %w", err)
	}

	if paymentID.Valid {
		order.PaymentID = paymentID.String
	}

	return &order, nil
}

// GetByOrderID returns the order with the given order id.
func (r *postgresRepository) GetByOrderID(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	query := fmt.Sprintf("SELECT %s FROM payment_orders WHERE order_id = $1 LIMIT 1", orderColumns)
	return scanOrder(r.db.QueryRowContext(ctx, query, orderID))
}

// GetByPaymentID returns the order carrying the given gateway payment id.
func (r *postgresRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.PaymentOrder, error) {
	query := fmt.Sprintf("SELECT %s FROM payment_orders WHERE payment_id = $1 LIMIT 1", orderColumns)
	return scanOrder(r.db.QueryRowContext(ctx, query, paymentID))
}

// MarkPaidByOrderID flips the order to paid and records the payment id.
func (r *postgresRepository) MarkPaidByOrderID(ctx context.Context, orderID, paymentID string) error {
	query := "UPDATE payment_orders SET status = 'paid', payment_id = COALESCE(NULLIF($2, ''), payment_id) WHERE order_id = $1"

	_, err := r.db.ExecContext(ctx, query, orderID, paymentID)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	return nil
}

// MarkPaidByPaymentID flips the order matching a payment id to paid.
func (r *postgresRepository) MarkPaidByPaymentID(ctx context.Context, paymentID string) error {
	query := "UPDATE payment_orders SET status = 'paid' WHERE payment_id = $1"

	_, err := r.db.ExecContext(ctx, query, paymentID)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	return nil
}

// MarkRevertedForUser marks the user's premium orders as reverted.
func (r *postgresRepository) MarkRevertedForUser(ctx context.Context, userID string) error {
	query := `
		UPDATE payment_orders
		SET status = 'reverted'
		WHERE user_id = $1 AND product_type IN ('predictions', 'top_gainers')
	`

	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to mark orders reverted: %w", err)
	}

	return nil
}
