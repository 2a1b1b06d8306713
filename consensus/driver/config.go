package driver

import (
	"time"
)

// Config contains the configurable parameters of the epoch driver.
type Config struct {
	// NominalPeriod is the proposal timer period while this node's
	// contributions make it into every agreed batch.
	NominalPeriod time.Duration
	// FastRetryPeriod is the proposal timer period while this node is
	// falling behind.
	FastRetryPeriod time.Duration
}

// DefaultConfig returns the default driver configuration.
func DefaultConfig() Config {
	return Config{
		NominalPeriod:   5000 * time.Millisecond,
		FastRetryPeriod: 500 * time.Millisecond,
	}
}

type OptionFunc func(*Config)

// WithNominalPeriod sets the proposal timer period used while keeping pace.
func WithNominalPeriod(period time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.NominalPeriod = period
	}
}

// WithFastRetryPeriod sets the proposal timer period used while falling behind.
func WithFastRetryPeriod(period time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.FastRetryPeriod = period
	}
}
