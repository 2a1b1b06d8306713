package operation

import (
	"github.com/dgraph-io/badger/v2"
)

// SetNextEpoch stores the lowest epoch which has not been applied yet.
func SetNextEpoch(epoch uint64) func(*badger.Txn) error {
	return upsert(makePrefix(codeNextEpoch), epoch)
}

// RetrieveNextEpoch retrieves the lowest epoch which has not been applied yet.
// Returns storage.ErrNotFound before the first epoch was applied.
func RetrieveNextEpoch(epoch *uint64) func(*badger.Txn) error {
	return retrieve(makePrefix(codeNextEpoch), epoch)
}
