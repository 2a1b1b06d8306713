package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/fedibtc/minimint/model/mint"
)

// InsertAcceptedRequest records a client request agreed in some epoch.
func InsertAcceptedRequest(req *mint.ClientRequest) func(*badger.Txn) error {
	return insert(makePrefix(codeAcceptedRequest, req.ID()), req)
}

func RetrieveAcceptedRequest(requestID mint.Identifier, req *mint.ClientRequest) func(*badger.Txn) error {
	return retrieve(makePrefix(codeAcceptedRequest, requestID), req)
}

func CheckAcceptedRequest(requestID mint.Identifier, exists *bool) func(*badger.Txn) error {
	return check(makePrefix(codeAcceptedRequest, requestID), exists)
}
