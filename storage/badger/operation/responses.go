package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/fedibtc/minimint/model/mint"
)

// InsertSigResponse stores the final signatures of a request.
func InsertSigResponse(resp *mint.SigResponse) func(*badger.Txn) error {
	return insert(makePrefix(codeSigResponse, resp.RequestID), resp)
}

func RetrieveSigResponse(requestID mint.Identifier, resp *mint.SigResponse) func(*badger.Txn) error {
	return retrieve(makePrefix(codeSigResponse, requestID), resp)
}

func CheckSigResponse(requestID mint.Identifier, exists *bool) func(*badger.Txn) error {
	return check(makePrefix(codeSigResponse, requestID), exists)
}
