// (c) 2019 Dapper Labs - ALL RIGHTS RESERVED

package coldstuff

import (
	"github.com/fedibtc/minimint/model/mint"
)

// round caches the contributions a leader collected for one epoch.
type round struct {
	epoch         uint64
	contributions map[mint.PeerID][]*mint.ConsensusItem
}

func newRound(epoch uint64) *round {
	return &round{
		epoch:         epoch,
		contributions: make(map[mint.PeerID][]*mint.ConsensusItem),
	}
}

// Contributed checks if the given peer already contributed this round.
func (r *round) Contributed(peer mint.PeerID) bool {
	_, ok := r.contributions[peer]
	return ok
}

// Tally records the contribution of the given peer.
func (r *round) Tally(peer mint.PeerID, items []*mint.ConsensusItem) {
	if items == nil {
		items = []*mint.ConsensusItem{}
	}
	r.contributions[peer] = items
}

// Votes returns the number of distinct contributors.
func (r *round) Votes() uint {
	return uint(len(r.contributions))
}

// Batch returns the collected contributions as the agreed batch of the round.
func (r *round) Batch() *mint.Batch {
	batch := mint.NewBatch(r.epoch)
	for peer, items := range r.contributions {
		batch.Contributions[peer] = items
	}
	return batch
}
