package consensus

import (
	"context"

	"github.com/fedibtc/minimint/model/mint"
)

// State is the application state fed by consensus. Agreed batches are applied
// strictly one at a time, in epoch order, concurrently with proposal snapshots
// and submissions.
type State interface {

	// GetConsensusProposal returns a snapshot of buffered items for the next
	// proposal. It never blocks on batch application.
	GetConsensusProposal() mint.Proposal

	// SubmitClientRequest buffers a client request for inclusion in a future proposal.
	// Expected errors during normal operations:
	//   - mint.RejectError if the request is malformed, duplicate or cannot be buffered
	SubmitClientRequest(req *mint.ClientRequest) error

	// ProcessConsensusOutcome applies an agreed batch and returns the signature
	// responses it completed. All errors are unrecoverable.
	ProcessConsensusOutcome(ctx context.Context, batch *mint.Batch) ([]*mint.SigResponse, error)
}
