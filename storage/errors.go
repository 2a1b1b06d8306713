package storage

import (
	"errors"
)

var (
	// ErrNotFound is returned by storage lookups for missing keys. Badger's own
	// badger.ErrKeyNotFound never leaves the storage packages.
	ErrNotFound = errors.New("key not found")

	// ErrAlreadyExists is returned when inserting under a key which is taken.
	ErrAlreadyExists = errors.New("key already exists")

	// ErrEpochOutOfOrder is returned when an epoch is applied below the
	// ledger's next expected epoch.
	ErrEpochOutOfOrder = errors.New("epoch applied out of order")
)
