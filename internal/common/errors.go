// Package common provides shared utilities and types used across the application.
package common

import "errors"

// Common application errors.
var (
	// Storage errors.
	ErrNotFound = errors.New("not found")

	// Goal engine errors.
	ErrCategoryUnavailable = errors.New("goal category unavailable")
	ErrUnknownLoop         = errors.New("unknown scheduler loop")

	// Push errors.
	ErrNoDevices = errors.New("no registered devices")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)
