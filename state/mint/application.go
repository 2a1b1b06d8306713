package mint

import (
	model "github.com/fedibtc/minimint/model/mint"
	"github.com/fedibtc/minimint/storage"
)

// application collects the effects of applying one batch before they are
// committed to the ledger.
type application struct {
	update   *storage.EpochUpdate
	items    map[model.Identifier]struct{}
	accepted map[model.Identifier]*model.ClientRequest
	shares   map[model.Identifier][]*model.PartialSignature
	touched  []model.Identifier // requests which received shares, in batch order
}

func newApplication(epoch uint64) *application {
	return &application{
		update:   storage.NewEpochUpdate(epoch),
		items:    make(map[model.Identifier]struct{}),
		accepted: make(map[model.Identifier]*model.ClientRequest),
		shares:   make(map[model.Identifier][]*model.PartialSignature),
	}
}

// first returns true the first time an item is seen within the batch.
func (a *application) first(item *model.ConsensusItem) bool {
	if item == nil {
		return false
	}
	id := item.ID()
	if _, ok := a.items[id]; ok {
		return false
	}
	a.items[id] = struct{}{}
	return true
}

// settle marks the request's outgoing share set as no longer needed.
func (a *application) settle(requestID model.Identifier) {
	for _, settled := range a.update.Settled {
		if settled == requestID {
			return
		}
	}
	a.update.Settled = append(a.update.Settled, requestID)
}

func (a *application) accept(requestID model.Identifier, req *model.ClientRequest) {
	a.accepted[requestID] = req
	a.update.Accepted = append(a.update.Accepted, req)
}

// addShares records a new share set, seeding the request's sets with the ones
// stored in earlier epochs.
func (a *application) addShares(sig *model.PartialSignature, stored []*model.PartialSignature) {
	sets, ok := a.shares[sig.RequestID]
	if !ok {
		sets = append(sets, stored...)
		a.touched = append(a.touched, sig.RequestID)
	}
	a.shares[sig.RequestID] = append(sets, sig)
	a.update.Shares = append(a.update.Shares, sig)
}
