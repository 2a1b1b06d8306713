package coldstuff

// Config holds the tunables of the coldstuff engine.
type Config struct {
	// MaxFutureEpochs bounds how far ahead of the current epoch contributions
	// and commits are buffered. Messages beyond are reported as faults.
	MaxFutureEpochs uint64
	// InitialEpoch is the epoch the engine starts in, usually the next epoch
	// the ledger expects after a restart.
	InitialEpoch uint64
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxFutureEpochs: 16,
		InitialEpoch:    0,
	}
}

type OptionFunc func(*Config)

// WithMaxFutureEpochs sets how many epochs ahead messages are buffered.
func WithMaxFutureEpochs(epochs uint64) OptionFunc {
	return func(cfg *Config) {
		cfg.MaxFutureEpochs = epochs
	}
}

// WithInitialEpoch makes the engine start in the given epoch.
func WithInitialEpoch(epoch uint64) OptionFunc {
	return func(cfg *Config) {
		cfg.InitialEpoch = epoch
	}
}
