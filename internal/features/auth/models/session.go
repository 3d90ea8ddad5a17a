package models

import "time"

// Session is a database-backed login session. Tokens are opaque; the
// alternative "local:<email>" token format never touches this table.
type Session struct {
	Token     string     `json:"session_token"`
	UserID    string     `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CookieName is the session cookie consumed by every authenticated endpoint.
const CookieName = "session_token"

// LocalTokenPrefix marks self-describing tokens used outside production
// deployments: "local:<email>".
const LocalTokenPrefix = "local:"
