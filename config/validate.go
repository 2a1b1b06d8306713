package config

import (
	"encoding/hex"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Validate checks the configuration for consistency and reports every problem
// found.
func (c *NodeConfig) Validate() error {
	var result *multierror.Error

	// share index i belongs to PeerID i, so the federation is exactly 0..N-1
	seen := make(map[uint16]struct{}, len(c.Peers))
	for _, peer := range c.Peers {
		if _, ok := seen[peer.ID]; ok {
			result = multierror.Append(result, fmt.Errorf("duplicate peer %d", peer.ID))
		}
		seen[peer.ID] = struct{}{}
		if int(peer.ID) >= len(c.Peers) {
			result = multierror.Append(result, fmt.Errorf("peer %d out of range for a federation of %d", peer.ID, len(c.Peers)))
		}
		if peer.Address == "" {
			result = multierror.Append(result, fmt.Errorf("peer %d has no address", peer.ID))
		}
	}
	if len(c.Peers) == 0 {
		result = multierror.Append(result, fmt.Errorf("no peers configured"))
	} else if _, ok := seen[c.PeerID]; !ok {
		result = multierror.Append(result, fmt.Errorf("own peer %d is not part of the federation", c.PeerID))
	}

	if len(c.Keys.PublicKeys) == 0 || len(c.Keys.PublicKeys) > len(c.Peers) {
		result = multierror.Append(result, fmt.Errorf("threshold %d out of range for %d peers", len(c.Keys.PublicKeys), len(c.Peers)))
	}
	for i, key := range c.Keys.PublicKeys {
		if _, err := hex.DecodeString(key); err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid public key %d: %w", i, err))
		}
	}
	if c.Keys.SecretShare == "" {
		result = multierror.Append(result, fmt.Errorf("no secret key share configured"))
	} else if _, err := hex.DecodeString(c.Keys.SecretShare); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid secret key share: %w", err))
	}

	if c.DataDir == "" {
		result = multierror.Append(result, fmt.Errorf("no data directory configured"))
	}
	if c.Gateway.Address == "" {
		result = multierror.Append(result, fmt.Errorf("no gateway address configured"))
	}
	if c.Driver.NominalPeriod <= 0 || c.Driver.FastRetryPeriod <= 0 {
		result = multierror.Append(result, fmt.Errorf("timer periods must be positive (nominal: %s, fast retry: %s)", c.Driver.NominalPeriod, c.Driver.FastRetryPeriod))
	}
	if c.Gateway.SubmitTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("submit timeout must be positive"))
	}
	if c.Transport.DialTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("dial timeout must be positive"))
	}

	for name, value := range map[string]uint{
		"ledger cache size":    c.LedgerCacheSize,
		"response cache size":  c.Gateway.ResponseCacheSize,
		"max pending items":    c.Mint.MaxPendingItems,
		"max proposal items":   c.Mint.MaxProposalItems,
		"max request messages": c.Mint.MaxRequestMessages,
		"seen cache size":      c.Mint.SeenCacheSize,
		"signing workers":      c.Mint.SigningWorkers,
	} {
		if value == 0 {
			result = multierror.Append(result, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.Engine.MaxFutureEpochs == 0 {
		result = multierror.Append(result, fmt.Errorf("max future epochs must be positive"))
	}

	return result.ErrorOrNil()
}
