package config

import (
	"encoding/hex"
	"fmt"

	"github.com/fedibtc/minimint/model/mint"
	"github.com/fedibtc/minimint/module/signature"
)

// Self returns the peer ID of this node.
func (c *NodeConfig) Self() mint.PeerID {
	return mint.PeerID(c.PeerID)
}

// PeerIDs returns every federation member including this node.
func (c *NodeConfig) PeerIDs() mint.PeerIDList {
	peers := make(mint.PeerIDList, 0, len(c.Peers))
	for _, peer := range c.Peers {
		peers = append(peers, mint.PeerID(peer.ID))
	}
	return peers.Sorted()
}

// ListenAddress returns the peer to peer address of this node.
func (c *NodeConfig) ListenAddress() string {
	for _, peer := range c.Peers {
		if peer.ID == c.PeerID {
			return peer.Address
		}
	}
	return ""
}

// RemotePeers maps every other federation member to its address.
func (c *NodeConfig) RemotePeers() map[mint.PeerID]string {
	remote := make(map[mint.PeerID]string, len(c.Peers))
	for _, peer := range c.Peers {
		if peer.ID == c.PeerID {
			continue
		}
		remote[mint.PeerID(peer.ID)] = peer.Address
	}
	return remote
}

// PublicKeySet decodes the federation's public key set.
func (c *NodeConfig) PublicKeySet() (*signature.PublicKeySet, error) {
	commits := make([][]byte, 0, len(c.Keys.PublicKeys))
	for i, key := range c.Keys.PublicKeys {
		commit, err := hex.DecodeString(key)
		if err != nil {
			return nil, fmt.Errorf("could not decode public key %d: %w", i, err)
		}
		commits = append(commits, commit)
	}
	return signature.DecodePublicKeySet(commits, len(c.Peers))
}

// SecretKeyShare decodes this node's key share.
func (c *NodeConfig) SecretKeyShare() (*signature.SecretKeyShare, error) {
	encoded, err := hex.DecodeString(c.Keys.SecretShare)
	if err != nil {
		return nil, fmt.Errorf("could not decode secret key share: %w", err)
	}
	return signature.DecodeSecretKeyShare(int(c.PeerID), encoded)
}

// EncodeKeys stores a dealt key in the configuration.
func (c *NodeConfig) EncodeKeys(keys *signature.PublicKeySet, share *signature.SecretKeyShare) error {
	commits, err := keys.Encode()
	if err != nil {
		return err
	}
	secret, err := share.Encode()
	if err != nil {
		return err
	}

	c.Keys.PublicKeys = make([]string, 0, len(commits))
	for _, commit := range commits {
		c.Keys.PublicKeys = append(c.Keys.PublicKeys, hex.EncodeToString(commit))
	}
	c.Keys.SecretShare = hex.EncodeToString(secret)
	return nil
}
