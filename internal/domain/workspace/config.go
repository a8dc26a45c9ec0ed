package workspace

import "time"

// Config holds workspace domain configuration.
type Config struct {
	StoreTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{StoreTimeout: 5 * time.Second}
}

// Validate fills zero values with defaults.
func (c *Config) Validate() error {
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = DefaultConfig().StoreTimeout
	}
	return nil
}
