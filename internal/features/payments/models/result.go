package models

import usermodels "stockai-backend/internal/features/user/models"

// Failure reasons surfaced to clients.
const (
	ReasonMismatch = "razorpay_mismatch"
	ReasonNoRecord = "no_record"
)

// GatewayInfo echoes the gateway's status and amount on a mismatch so users
// can self-debug a declined verification.
type GatewayInfo struct {
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

// VerificationResult is the normalized outcome of a verification attempt.
// It is transient, never persisted.
type VerificationResult struct {
	Verified  bool                     `json:"verified"`
	PaymentID string                   `json:"payment_id,omitempty"`
	OrderID   string                   `json:"order_id,omitempty"`
	Status    OrderStatus              `json:"status,omitempty"`
	User      *usermodels.UserResponse `json:"user,omitempty"`
	Error     string                   `json:"error,omitempty"`
	Reason    string                   `json:"reason,omitempty"`
	Razorpay  *GatewayInfo             `json:"razorpay,omitempty"`
	Debug     map[string]interface{}   `json:"debug,omitempty"`
	Message   string                   `json:"message,omitempty"`
}

// CreatePaymentResult is returned from create-payment.
type CreatePaymentResult struct {
	AlreadyPaid bool   `json:"alreadyPaid,omitempty"`
	OrderID     string `json:"orderId,omitempty"`
	PaymentLink string `json:"paymentLink,omitempty"`
	Message     string `json:"message,omitempty"`
	Redirect    string `json:"redirect,omitempty"`
}
