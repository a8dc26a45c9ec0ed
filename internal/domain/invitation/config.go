package invitation

import "time"

// Config holds invitation domain configuration.
type Config struct {
	// Expiry is how long an invitation stays redeemable after creation.
	Expiry time.Duration

	// TokenLength is the length of generated invitation tokens.
	TokenLength int

	// BaseURL is the base URL for invite links.
	BaseURL string

	StoreTimeout  time.Duration
	NotifyTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Expiry:        7 * 24 * time.Hour,
		TokenLength:   32,
		BaseURL:       "https://approvenow.app",
		StoreTimeout:  5 * time.Second,
		NotifyTimeout: 10 * time.Second,
	}
}

// Validate fills zero values with defaults.
func (c *Config) Validate() error {
	d := DefaultConfig()
	if c.Expiry <= 0 {
		c.Expiry = d.Expiry
	}
	if c.TokenLength < 16 {
		c.TokenLength = d.TokenLength
	}
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = d.StoreTimeout
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = d.NotifyTimeout
	}
	return nil
}

// ExpiresInDays returns the expiry rounded up to whole days.
func (c *Config) ExpiresInDays() int {
	return int((c.Expiry + 24*time.Hour - 1) / (24 * time.Hour))
}
