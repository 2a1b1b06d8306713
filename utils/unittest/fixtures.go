package unittest

import (
	crand "crypto/rand"
	"fmt"

	"github.com/fedibtc/minimint/model/mint"
)

func IdentifierFixture() mint.Identifier {
	var id mint.Identifier
	_, _ = crand.Read(id[:])
	return id
}

func RandomBytes(n int) []byte {
	b := make([]byte, n)
	read, err := crand.Read(b)
	if err != nil {
		panic("cannot read random bytes")
	}
	if read != n {
		panic(fmt.Errorf("cannot read enough random bytes (got %d of %d)", read, n))
	}
	return b
}

// ClientRequestFixture returns a request with the given number of random messages.
func ClientRequestFixture(messages int) *mint.ClientRequest {
	req := &mint.ClientRequest{Messages: make([][]byte, 0, messages)}
	for i := 0; i < messages; i++ {
		req.Messages = append(req.Messages, RandomBytes(32))
	}
	return req
}

// ProposalFixture returns a proposal of client request items.
func ProposalFixture(items int) mint.Proposal {
	proposal := make(mint.Proposal, 0, items)
	for i := 0; i < items; i++ {
		proposal = append(proposal, mint.NewClientRequestItem(ClientRequestFixture(1)))
	}
	return proposal
}

// BatchFixture returns a batch for the given epoch where every listed peer
// contributed a single client request.
func BatchFixture(epoch uint64, peers ...mint.PeerID) *mint.Batch {
	batch := mint.NewBatch(epoch)
	for _, peer := range peers {
		batch.Contributions[peer] = ProposalFixture(1)
	}
	return batch
}

// SigResponseFixture returns a response for a random request.
func SigResponseFixture(epoch uint64) *mint.SigResponse {
	return &mint.SigResponse{
		RequestID:  IdentifierFixture(),
		Epoch:      epoch,
		Signatures: [][]byte{RandomBytes(64)},
	}
}

// PeerIDListFixture returns the PeerIDs 0 to n-1.
func PeerIDListFixture(n int) mint.PeerIDList {
	peers := make(mint.PeerIDList, 0, n)
	for i := 0; i < n; i++ {
		peers = append(peers, mint.PeerID(i))
	}
	return peers
}
