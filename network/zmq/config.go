package zmq

import (
	"time"
)

// Config holds the tunables of the peer transport.
type Config struct {
	InboundQueue     uint          // messages buffered for the driver
	DialRetryInitial time.Duration // first backoff between dial attempts
	DialRetryMax     time.Duration // cap of the backoff between dial attempts
	DialTimeout      time.Duration // total time to reach every peer at startup
}

func DefaultConfig() Config {
	return Config{
		InboundQueue:     64,
		DialRetryInitial: 100 * time.Millisecond,
		DialRetryMax:     5 * time.Second,
		DialTimeout:      2 * time.Minute,
	}
}

type OptionFunc func(*Config)

func WithInboundQueue(size uint) OptionFunc {
	return func(cfg *Config) {
		cfg.InboundQueue = size
	}
}

func WithDialRetry(initial, limit time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.DialRetryInitial = initial
		cfg.DialRetryMax = limit
	}
}

func WithDialTimeout(timeout time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.DialTimeout = timeout
	}
}
