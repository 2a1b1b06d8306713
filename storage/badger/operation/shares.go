package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/fedibtc/minimint/model/mint"
)

// InsertSignatureShare stores a verified share set, keyed by request and signer.
// A signer's first share set for a request is final.
func InsertSignatureShare(sig *mint.PartialSignature) func(*badger.Txn) error {
	return insert(makePrefix(codeSignatureShare, sig.RequestID, sig.Peer), sig)
}

// LookupSignatureShares retrieves all share sets of a request in signer order.
func LookupSignatureShares(requestID mint.Identifier, sigs *[]*mint.PartialSignature) func(*badger.Txn) error {
	*sigs = make([]*mint.PartialSignature, 0)
	return collect(makePrefix(codeSignatureShare, requestID), sigs)
}
