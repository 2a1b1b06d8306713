package mint

import (
	"sort"
	"strconv"
)

// PeerID identifies a member of the federation. The member with PeerID i holds
// the threshold key share with index i.
type PeerID uint16

func (p PeerID) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// PeerIDList is a list of federation members.
type PeerIDList []PeerID

// Sorted returns a sorted copy of the list.
func (l PeerIDList) Sorted() PeerIDList {
	dup := make(PeerIDList, len(l))
	copy(dup, l)
	sort.Slice(dup, func(i, j int) bool { return dup[i] < dup[j] })
	return dup
}

// Contains returns true if the peer is in the list.
func (l PeerIDList) Contains(peer PeerID) bool {
	for _, p := range l {
		if p == peer {
			return true
		}
	}
	return false
}

// Lookup returns the list as a set.
func (l PeerIDList) Lookup() map[PeerID]struct{} {
	lookup := make(map[PeerID]struct{}, len(l))
	for _, p := range l {
		lookup[p] = struct{}{}
	}
	return lookup
}
