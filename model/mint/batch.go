package mint

import (
	"sort"
)

// Batch is the agreed outcome of one epoch: for each contributing peer, the
// items it proposed.
type Batch struct {
	Epoch         uint64
	Contributions map[PeerID][]*ConsensusItem
}

// NewBatch creates an empty batch for the given epoch.
func NewBatch(epoch uint64) *Batch {
	return &Batch{
		Epoch:         epoch,
		Contributions: make(map[PeerID][]*ConsensusItem),
	}
}

// Contains returns true if the given peer's contribution is part of the batch.
func (b *Batch) Contains(peer PeerID) bool {
	_, ok := b.Contributions[peer]
	return ok
}

// Peers returns the contributing peers in ascending order.
func (b *Batch) Peers() PeerIDList {
	peers := make(PeerIDList, 0, len(b.Contributions))
	for peer := range b.Contributions {
		peers = append(peers, peer)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i] < peers[j] })
	return peers
}

// Items returns all contributed items in a deterministic order: peers ascending,
// each peer's items in proposal order.
func (b *Batch) Items() []ContributedItem {
	var items []ContributedItem
	for _, peer := range b.Peers() {
		for _, item := range b.Contributions[peer] {
			items = append(items, ContributedItem{Peer: peer, Item: item})
		}
	}
	return items
}

// Size returns the total number of contributed items.
func (b *Batch) Size() int {
	size := 0
	for _, items := range b.Contributions {
		size += len(items)
	}
	return size
}

// ContributedItem is an item together with the peer that proposed it.
type ContributedItem struct {
	Peer PeerID
	Item *ConsensusItem
}
