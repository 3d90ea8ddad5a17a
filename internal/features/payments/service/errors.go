package service

import "errors"

var (
	// ErrNoAccess means a revert was requested by a user with neither
	// entitlement flag set.
	ErrNoAccess = errors.New("user has no paid access to revert")
	// ErrNoDatabase means the operation needs the order store and none is
	// configured.
	ErrNoDatabase = errors.New("database not configured")
)
