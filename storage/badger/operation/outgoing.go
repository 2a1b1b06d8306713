package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/fedibtc/minimint/model/mint"
)

// UpsertOutgoingShare stores one of this node's share sets until it is agreed on.
func UpsertOutgoingShare(sig *mint.PartialSignature) func(*badger.Txn) error {
	return upsert(makePrefix(codeOutgoingShare, sig.RequestID), sig)
}

func RemoveOutgoingShare(requestID mint.Identifier) func(*badger.Txn) error {
	return remove(makePrefix(codeOutgoingShare, requestID))
}

// LookupOutgoingShares retrieves every outgoing share set in request ID order.
func LookupOutgoingShares(sigs *[]*mint.PartialSignature) func(*badger.Txn) error {
	*sigs = make([]*mint.PartialSignature, 0)
	return collect(makePrefix(codeOutgoingShare), sigs)
}
