package mint

// Config holds the limits of the mint state.
type Config struct {
	MaxPendingItems    uint // client requests buffered for proposal
	MaxProposalItems   uint // items contributed per epoch
	MaxRequestMessages uint // messages a single request may ask to sign
	SeenCacheSize      uint // recently accepted requests kept in memory
	SigningWorkers     uint // parallel signature share computations
}

func DefaultConfig() Config {
	return Config{
		MaxPendingItems:    1000,
		MaxProposalItems:   100,
		MaxRequestMessages: 64,
		SeenCacheSize:      10000,
		SigningWorkers:     4,
	}
}

type OptionFunc func(*Config)

func WithMaxPendingItems(n uint) OptionFunc {
	return func(cfg *Config) {
		cfg.MaxPendingItems = n
	}
}

func WithMaxProposalItems(n uint) OptionFunc {
	return func(cfg *Config) {
		cfg.MaxProposalItems = n
	}
}

func WithMaxRequestMessages(n uint) OptionFunc {
	return func(cfg *Config) {
		cfg.MaxRequestMessages = n
	}
}

func WithSeenCacheSize(n uint) OptionFunc {
	return func(cfg *Config) {
		cfg.SeenCacheSize = n
	}
}

func WithSigningWorkers(n uint) OptionFunc {
	return func(cfg *Config) {
		cfg.SigningWorkers = n
	}
}
