package models

import "time"

// User is a paper-trading account. The entitlement flags are only ever set
// by payment verification and cleared by an explicit revert.
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Balance          float64   `json:"balance"`
	IsPredictionPaid bool      `json:"is_prediction_paid"`
	IsTopGainerPaid  bool      `json:"is_top_gainer_paid"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UserResponse is the client-facing snapshot returned from session and
// verification endpoints.
type UserResponse struct {
	ID               string  `json:"id"`
	Email            string  `json:"email"`
	Name             string  `json:"name"`
	Balance          float64 `json:"balance"`
	IsPredictionPaid bool    `json:"isPredictionPaid"`
	IsTopGainerPaid  bool    `json:"isTopGainerPaid"`
}

// DefaultBalance is the starting paper-trading cash for new accounts.
const DefaultBalance = 100000
