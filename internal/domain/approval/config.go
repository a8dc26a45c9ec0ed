package approval

import "time"

// Config holds approval domain configuration.
type Config struct {
	// StoreTimeout bounds every store round trip of a command.
	StoreTimeout time.Duration

	// NotifyTimeout bounds the notification hand-off after a commit.
	NotifyTimeout time.Duration

	// MaxSteps is the maximum number of approval levels per request.
	MaxSteps int

	// MaxApproversPerStep is the maximum number of approvers per level.
	MaxApproversPerStep int

	// BaseURL is the base URL for request links in notifications.
	BaseURL string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StoreTimeout:        5 * time.Second,
		NotifyTimeout:       10 * time.Second,
		MaxSteps:            10,
		MaxApproversPerStep: 50,
		BaseURL:             "https://approvenow.app",
	}
}

// Validate fills zero values with defaults.
func (c *Config) Validate() error {
	d := DefaultConfig()
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = d.StoreTimeout
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = d.NotifyTimeout
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = d.MaxSteps
	}
	if c.MaxApproversPerStep <= 0 {
		c.MaxApproversPerStep = d.MaxApproversPerStep
	}
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	return nil
}
