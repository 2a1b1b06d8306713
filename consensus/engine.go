package consensus

import (
	"github.com/fedibtc/minimint/model/mint"
)

// Engine is the BFT agreement engine, driven step by step. It is not safe for
// concurrent use: the epoch driver is its only caller and invokes exactly one
// method per event.
type Engine interface {

	// HasPendingInput returns true if this node already proposed for the
	// current epoch.
	HasPendingInput() bool

	// Propose submits this node's proposal for the current epoch.
	// All errors are unrecoverable.
	Propose(proposal mint.Proposal) (*mint.Step, error)

	// HandleMessage processes a protocol message received from a peer. Invalid
	// messages are reported in the step's fault log, not as errors.
	// All errors are unrecoverable.
	HandleMessage(sender mint.PeerID, payload []byte) (*mint.Step, error)

	// Epoch returns the epoch the engine is currently working on. It only
	// advances when a batch is output.
	Epoch() uint64
}
