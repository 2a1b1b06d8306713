package config

import (
	"time"
)

// PeerConfig identifies a federation member and its peer to peer address.
type PeerConfig struct {
	ID      uint16 `mapstructure:"id" yaml:"id"`
	Address string `mapstructure:"address" yaml:"address"`
}

// KeyConfig holds the threshold key material of a node, hex encoded.
type KeyConfig struct {
	// PublicKeys are the commitments of the dealt polynomial, the first being
	// the federation public key. Their number is the signing threshold.
	PublicKeys []string `mapstructure:"public-keys" yaml:"public-keys,omitempty"`
	// SecretShare is this node's key share.
	SecretShare string `mapstructure:"secret-share" yaml:"secret-share,omitempty"`
}

type GatewayConfig struct {
	Address           string        `mapstructure:"address" yaml:"address,omitempty"`
	ResponseQueue     uint          `mapstructure:"response-queue" yaml:"response-queue,omitempty"`
	ResponseCacheSize uint          `mapstructure:"response-cache-size" yaml:"response-cache-size,omitempty"`
	SubmitTimeout     time.Duration `mapstructure:"submit-timeout" yaml:"submit-timeout,omitempty"`
}

type DriverConfig struct {
	NominalPeriod   time.Duration `mapstructure:"nominal-period" yaml:"nominal-period,omitempty"`
	FastRetryPeriod time.Duration `mapstructure:"fast-retry-period" yaml:"fast-retry-period,omitempty"`
	IntakeQueue     uint          `mapstructure:"intake-queue" yaml:"intake-queue,omitempty"`
}

type EngineConfig struct {
	MaxFutureEpochs uint64 `mapstructure:"max-future-epochs" yaml:"max-future-epochs,omitempty"`
}

type MintConfig struct {
	MaxPendingItems    uint `mapstructure:"max-pending-items" yaml:"max-pending-items,omitempty"`
	MaxProposalItems   uint `mapstructure:"max-proposal-items" yaml:"max-proposal-items,omitempty"`
	MaxRequestMessages uint `mapstructure:"max-request-messages" yaml:"max-request-messages,omitempty"`
	SeenCacheSize      uint `mapstructure:"seen-cache-size" yaml:"seen-cache-size,omitempty"`
	SigningWorkers     uint `mapstructure:"signing-workers" yaml:"signing-workers,omitempty"`
}

type TransportConfig struct {
	InboundQueue uint          `mapstructure:"inbound-queue" yaml:"inbound-queue,omitempty"`
	DialTimeout  time.Duration `mapstructure:"dial-timeout" yaml:"dial-timeout,omitempty"`
}

// NodeConfig is the complete configuration of a federation member.
type NodeConfig struct {
	PeerID          uint16          `mapstructure:"peer-id" yaml:"peer-id"`
	DataDir         string          `mapstructure:"datadir" yaml:"datadir,omitempty"`
	MetricsAddress  string          `mapstructure:"metrics-address" yaml:"metrics-address,omitempty"`
	LedgerCacheSize uint            `mapstructure:"ledger-cache-size" yaml:"ledger-cache-size,omitempty"`
	Peers           []PeerConfig    `mapstructure:"peers" yaml:"peers"`
	Keys            KeyConfig       `mapstructure:"keys" yaml:"keys"`
	Gateway         GatewayConfig   `mapstructure:"gateway" yaml:"gateway,omitempty"`
	Driver          DriverConfig    `mapstructure:"driver" yaml:"driver,omitempty"`
	Engine          EngineConfig    `mapstructure:"engine" yaml:"engine,omitempty"`
	Mint            MintConfig      `mapstructure:"mint" yaml:"mint,omitempty"`
	Transport       TransportConfig `mapstructure:"transport" yaml:"transport,omitempty"`
}

// Default returns the configuration every loaded file is layered on. It has no
// identity, peers or keys.
func Default() *NodeConfig {
	return &NodeConfig{
		DataDir:         "data",
		MetricsAddress:  "127.0.0.1:9090",
		LedgerCacheSize: 1000,
		Gateway: GatewayConfig{
			Address:           "127.0.0.1:8080",
			ResponseQueue:     4,
			ResponseCacheSize: 1000,
			SubmitTimeout:     10 * time.Second,
		},
		Driver: DriverConfig{
			NominalPeriod:   5000 * time.Millisecond,
			FastRetryPeriod: 500 * time.Millisecond,
			IntakeQueue:     4,
		},
		Engine: EngineConfig{
			MaxFutureEpochs: 16,
		},
		Mint: MintConfig{
			MaxPendingItems:    1000,
			MaxProposalItems:   100,
			MaxRequestMessages: 64,
			SeenCacheSize:      10000,
			SigningWorkers:     4,
		},
		Transport: TransportConfig{
			InboundQueue: 64,
			DialTimeout:  2 * time.Minute,
		},
	}
}
