package repository

import (
	"context"
	"errors"

	"stockai-backend/internal/features/payments/models"
)

var ErrOrderNotFound = errors.New("payment order not found")

type OrderRepository interface {
	// Create inserts the order, silently keeping the existing row on an
	// order id conflict so concurrent creates stay idempotent.
	Create(ctx context.Context, order *models.PaymentOrder) error
	GetByOrderID(ctx context.Context, orderID string) (*models.PaymentOrder, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*models.PaymentOrder, error)
	// MarkPaidByOrderID flips the order to paid and records the payment id.
	// Updating a row that is already paid is a no-op state-wise.
	MarkPaidByOrderID(ctx context.Context, orderID, paymentID string) error
	MarkPaidByPaymentID(ctx context.Context, paymentID string) error
	// MarkRevertedForUser marks the user's orders reverted, best-effort.
	MarkRevertedForUser(ctx context.Context, userID string) error
}
