package service

import (
	"context"

	"stockai-backend/internal/features/payments/models"
	"stockai-backend/internal/platform/razorpay"
)

// Gateway is the slice of the Razorpay client the payment service uses.
type Gateway interface {
	Configured() bool
	LookupPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error)
	CreatePaymentLink(ctx context.Context, req razorpay.CreateLinkRequest) (*razorpay.PaymentLink, error)
}

// VerifyRequest is a verification attempt. SessionUserID is the
// caller-resolved session identity (may be empty); the engine never reads
// cookies itself.
type VerifyRequest struct {
	PaymentID           string
	OrderID             string
	Product             models.ProductType
	SessionUserID       string
	SessionTokenPresent bool
}

type PaymentService interface {
	// Verify reconciles a claimed payment against the gateway and the
	// order store and grants the entitlement on success. It never returns
	// an error; failures are encoded in the result.
	Verify(ctx context.Context, req VerifyRequest) *models.VerificationResult
	// ConfirmOrder is the order-id-only GET path: no gateway call, the
	// database row is the sole authority (plus test-mode auto-capture).
	ConfirmOrder(ctx context.Context, orderID string, product models.ProductType) *models.VerificationResult
	CreatePayment(ctx context.Context, userID, email, name string, product models.ProductType) (*models.CreatePaymentResult, error)
	// Revert clears BOTH entitlement flags and best-effort marks the
	// user's orders reverted, whichever product triggered it.
	Revert(ctx context.Context, userID string) (*models.VerificationResult, error)
	CheckAccess(ctx context.Context, userID string, product models.ProductType) (bool, error)
	// HandleWebhook processes a gateway callback for a payment link.
	HandleWebhook(ctx context.Context, orderID, paymentID, linkStatus string) error
}
