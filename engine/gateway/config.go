package gateway

import (
	"time"
)

// Config holds the settings of the client gateway.
type Config struct {
	ListenAddress     string
	ResponseQueue     uint          // response batches buffered between driver and gateway
	ResponseCacheSize uint          // recently completed responses served from memory
	SubmitTimeout     time.Duration // how long a POST waits for the driver
	MaxBodyBytes      int64
}

func DefaultConfig() Config {
	return Config{
		ListenAddress:     "127.0.0.1:8080",
		ResponseQueue:     4,
		ResponseCacheSize: 1000,
		SubmitTimeout:     10 * time.Second,
		MaxBodyBytes:      1 << 20,
	}
}

type OptionFunc func(*Config)

func WithListenAddress(address string) OptionFunc {
	return func(cfg *Config) {
		cfg.ListenAddress = address
	}
}

func WithResponseQueue(size uint) OptionFunc {
	return func(cfg *Config) {
		cfg.ResponseQueue = size
	}
}

func WithResponseCacheSize(size uint) OptionFunc {
	return func(cfg *Config) {
		cfg.ResponseCacheSize = size
	}
}

func WithSubmitTimeout(timeout time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.SubmitTimeout = timeout
	}
}
