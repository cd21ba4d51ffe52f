// Package push delivers queued notifications to devices through Firebase
// Cloud Messaging.
package push

import (
	"fmt"
	"time"

	"github.com/Veraticus/expense-tracker/internal/common"
)

// Config holds the configuration for push delivery.
type Config struct {
	ServiceAccountPath string
	ProjectID          string
	Endpoint           string
	RetryAttempts      int
	RetryDelay         time.Duration
	Enabled            bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RetryAttempts: 3,
		RetryDelay:    500 * time.Millisecond,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ServiceAccountPath == "" {
		return fmt.Errorf("%w: push.service_account_path is required when push is enabled", common.ErrMissingConfig)
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("%w: retry attempts must be positive", common.ErrInvalidConfig)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay must not be negative", common.ErrInvalidConfig)
	}
	return nil
}
