package notification

import "time"

// Config holds dispatcher configuration.
type Config struct {
	// DedupeTTL is how long a delivered intent key is remembered.
	DedupeTTL time.Duration

	// MaxConcurrentLookups bounds parallel recipient lookups.
	MaxConcurrentLookups int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DedupeTTL:            72 * time.Hour,
		MaxConcurrentLookups: 8,
	}
}

// Validate fills zero values with defaults.
func (c *Config) Validate() error {
	d := DefaultConfig()
	if c.DedupeTTL <= 0 {
		c.DedupeTTL = d.DedupeTTL
	}
	if c.MaxConcurrentLookups <= 0 {
		c.MaxConcurrentLookups = d.MaxConcurrentLookups
	}
	return nil
}
