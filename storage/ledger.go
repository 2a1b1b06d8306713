package storage

import (
	"github.com/fedibtc/minimint/model/mint"
)

// EpochUpdate holds every ledger write caused by applying one agreed batch.
type EpochUpdate struct {
	Epoch    uint64
	Accepted []*mint.ClientRequest
	Shares   []*mint.PartialSignature
	Finished []*mint.SigResponse

	// Outgoing are this node's own share sets, computed for requests accepted
	// in this epoch and waiting to be agreed on in a later one.
	Outgoing []*mint.PartialSignature
	// Settled lists requests whose outgoing share set is no longer needed.
	Settled []mint.Identifier
}

// NewEpochUpdate returns an empty update for the given epoch.
func NewEpochUpdate(epoch uint64) *EpochUpdate {
	return &EpochUpdate{Epoch: epoch}
}

// Ledger is the durable record of the mint. All writes caused by an epoch are
// committed atomically together with the epoch marker, so a restarted node can
// tell exactly which batches it has already applied.
type Ledger interface {
	// NextEpoch returns the lowest epoch which has not been applied yet.
	NextEpoch() (uint64, error)

	// AcceptedRequest returns an accepted client request.
	// Expected errors during normal operations:
	//   - storage.ErrNotFound if the request was never accepted
	AcceptedRequest(requestID mint.Identifier) (*mint.ClientRequest, error)

	// IsAccepted returns true if the request was accepted in a past epoch.
	IsAccepted(requestID mint.Identifier) (bool, error)

	// Shares returns every stored signature share set of a request.
	Shares(requestID mint.Identifier) ([]*mint.PartialSignature, error)

	// Response returns the final signatures for a request.
	// Expected errors during normal operations:
	//   - storage.ErrNotFound if the request has not been signed yet
	Response(requestID mint.Identifier) (*mint.SigResponse, error)

	// OutgoingShares returns this node's share sets which were computed but
	// not yet agreed on, in request ID order.
	OutgoingShares() ([]*mint.PartialSignature, error)

	// ApplyEpoch atomically commits the update and advances the next epoch past it.
	// Expected errors during normal operations:
	//   - storage.ErrEpochOutOfOrder if the epoch is below NextEpoch
	ApplyEpoch(update *EpochUpdate) error
}
