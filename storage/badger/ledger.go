package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/fedibtc/minimint/model/mint"
	"github.com/fedibtc/minimint/storage"
	"github.com/fedibtc/minimint/storage/badger/operation"
)

// Ledger implements storage.Ledger on top of badger.
type Ledger struct {
	db        *badger.DB
	responses *responseCache
}

var _ storage.Ledger = (*Ledger)(nil)

func NewLedger(db *badger.DB, responseCacheSize uint) *Ledger {
	retrieve := func(requestID mint.Identifier) (*mint.SigResponse, error) {
		var resp mint.SigResponse
		err := db.View(operation.RetrieveSigResponse(requestID, &resp))
		if err != nil {
			return nil, err
		}
		return &resp, nil
	}

	return &Ledger{
		db:        db,
		responses: newResponseCache(responseCacheSize, retrieve),
	}
}

func (l *Ledger) NextEpoch() (uint64, error) {
	var epoch uint64
	err := l.db.View(operation.RetrieveNextEpoch(&epoch))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("could not retrieve next epoch: %w", err)
	}
	return epoch, nil
}

func (l *Ledger) AcceptedRequest(requestID mint.Identifier) (*mint.ClientRequest, error) {
	var req mint.ClientRequest
	err := l.db.View(operation.RetrieveAcceptedRequest(requestID, &req))
	if err != nil {
		return nil, fmt.Errorf("could not retrieve request %x: %w", requestID, err)
	}
	return &req, nil
}

func (l *Ledger) IsAccepted(requestID mint.Identifier) (bool, error) {
	var exists bool
	err := l.db.View(operation.CheckAcceptedRequest(requestID, &exists))
	if err != nil {
		return false, fmt.Errorf("could not check request %x: %w", requestID, err)
	}
	return exists, nil
}

func (l *Ledger) Shares(requestID mint.Identifier) ([]*mint.PartialSignature, error) {
	var sigs []*mint.PartialSignature
	err := l.db.View(operation.LookupSignatureShares(requestID, &sigs))
	if err != nil {
		return nil, fmt.Errorf("could not look up shares of request %x: %w", requestID, err)
	}
	return sigs, nil
}

func (l *Ledger) OutgoingShares() ([]*mint.PartialSignature, error) {
	var sigs []*mint.PartialSignature
	err := l.db.View(operation.LookupOutgoingShares(&sigs))
	if err != nil {
		return nil, fmt.Errorf("could not look up outgoing shares: %w", err)
	}
	return sigs, nil
}

func (l *Ledger) Response(requestID mint.Identifier) (*mint.SigResponse, error) {
	return l.responses.Get(requestID)
}

func (l *Ledger) ApplyEpoch(update *storage.EpochUpdate) error {
	err := l.db.Update(func(tx *badger.Txn) error {
		var next uint64
		err := operation.RetrieveNextEpoch(&next)(tx)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("could not retrieve next epoch: %w", err)
		}
		if update.Epoch < next {
			return fmt.Errorf("epoch %d is below next epoch %d: %w", update.Epoch, next, storage.ErrEpochOutOfOrder)
		}

		for _, req := range update.Accepted {
			err = operation.InsertAcceptedRequest(req)(tx)
			if err != nil {
				return fmt.Errorf("could not insert request %x: %w", req.ID(), err)
			}
		}
		for _, sig := range update.Shares {
			err = operation.InsertSignatureShare(sig)(tx)
			if err != nil {
				return fmt.Errorf("could not insert share of peer %d for request %x: %w", sig.Peer, sig.RequestID, err)
			}
		}
		for _, resp := range update.Finished {
			err = operation.InsertSigResponse(resp)(tx)
			if err != nil {
				return fmt.Errorf("could not insert response for request %x: %w", resp.RequestID, err)
			}
		}

		for _, requestID := range update.Settled {
			err = operation.RemoveOutgoingShare(requestID)(tx)
			if err != nil {
				return fmt.Errorf("could not remove outgoing share for request %x: %w", requestID, err)
			}
		}
		for _, sig := range update.Outgoing {
			err = operation.UpsertOutgoingShare(sig)(tx)
			if err != nil {
				return fmt.Errorf("could not store outgoing share for request %x: %w", sig.RequestID, err)
			}
		}

		err = operation.SetNextEpoch(update.Epoch + 1)(tx)
		if err != nil {
			return fmt.Errorf("could not advance next epoch: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not apply epoch %d: %w", update.Epoch, err)
	}

	for _, resp := range update.Finished {
		l.responses.Insert(resp)
	}
	return nil
}
