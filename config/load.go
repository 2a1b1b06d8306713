package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables overriding configuration keys, for
// example MINIMINT_GATEWAY_ADDRESS overrides gateway.address.
const EnvPrefix = "MINIMINT"

// flagKeys are the configuration keys which may also be set by CLI flags.
var flagKeys = []string{"peer-id", "datadir"}

// Load reads the YAML configuration file at path, layered on the defaults and
// overridden by environment variables and changed flags. An empty path loads
// the defaults only. The returned configuration is not validated.
func Load(path string, flags *pflag.FlagSet) (*NodeConfig, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		err := v.ReadInConfig()
		if err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", path, err)
		}
	}

	if flags != nil {
		for _, key := range flagKeys {
			flag := flags.Lookup(key)
			if flag == nil {
				continue
			}
			err := v.BindPFlag(key, flag)
			if err != nil {
				return nil, fmt.Errorf("could not bind flag %s: %w", key, err)
			}
		}
	}

	cfg := &NodeConfig{}
	err := v.Unmarshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not decode configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every scalar key so that environment variables can
// override keys absent from the file.
func setDefaults(v *viper.Viper, cfg *NodeConfig) {
	v.SetDefault("peer-id", cfg.PeerID)
	v.SetDefault("datadir", cfg.DataDir)
	v.SetDefault("metrics-address", cfg.MetricsAddress)
	v.SetDefault("ledger-cache-size", cfg.LedgerCacheSize)
	v.SetDefault("keys.secret-share", cfg.Keys.SecretShare)

	v.SetDefault("gateway.address", cfg.Gateway.Address)
	v.SetDefault("gateway.response-queue", cfg.Gateway.ResponseQueue)
	v.SetDefault("gateway.response-cache-size", cfg.Gateway.ResponseCacheSize)
	v.SetDefault("gateway.submit-timeout", cfg.Gateway.SubmitTimeout)

	v.SetDefault("driver.nominal-period", cfg.Driver.NominalPeriod)
	v.SetDefault("driver.fast-retry-period", cfg.Driver.FastRetryPeriod)
	v.SetDefault("driver.intake-queue", cfg.Driver.IntakeQueue)

	v.SetDefault("engine.max-future-epochs", cfg.Engine.MaxFutureEpochs)

	v.SetDefault("mint.max-pending-items", cfg.Mint.MaxPendingItems)
	v.SetDefault("mint.max-proposal-items", cfg.Mint.MaxProposalItems)
	v.SetDefault("mint.max-request-messages", cfg.Mint.MaxRequestMessages)
	v.SetDefault("mint.seen-cache-size", cfg.Mint.SeenCacheSize)
	v.SetDefault("mint.signing-workers", cfg.Mint.SigningWorkers)

	v.SetDefault("transport.inbound-queue", cfg.Transport.InboundQueue)
	v.SetDefault("transport.dial-timeout", cfg.Transport.DialTimeout)
}
