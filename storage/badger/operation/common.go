// (c) 2019 Dapper Labs - ALL RIGHTS RESERVED

package operation

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/fedibtc/minimint/storage"
)

// insert stores the encoded entity under key.
// Expected errors:
//   - storage.ErrAlreadyExists if the key is taken
func insert(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("could not check key: %w", err)
		}
		return upsert(key, entity)(tx)
	}
}

// upsert stores the encoded entity under key, replacing any previous value.
func upsert(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		val, err := encodeEntity(entity)
		if err != nil {
			return err
		}
		err = tx.Set(key, val)
		if err != nil {
			return fmt.Errorf("could not store data: %w", err)
		}
		return nil
	}
}

func check(key []byte, exists *bool) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			*exists = false
		case err != nil:
			return fmt.Errorf("could not check existence: %w", err)
		default:
			*exists = true
		}
		return nil
	}
}

// remove deletes the value under key. Removing a missing key is not an error.
func remove(key []byte) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		err := tx.Delete(key)
		if err != nil {
			return fmt.Errorf("could not delete data: %w", err)
		}
		return nil
	}
}

// retrieve decodes the value under key into entity, which must be a pointer.
// Expected errors:
//   - storage.ErrNotFound if the key does not exist
func retrieve(key []byte, entity interface{}) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("could not load data: %w", err)
		}
		return item.Value(func(val []byte) error {
			return decodeValue(val, entity)
		})
	}
}

// collect decodes every value under prefix, in key order, and appends it to
// entities.
func collect[T any](prefix []byte, entities *[]*T) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		if len(prefix) == 0 {
			return fmt.Errorf("prefix must not be empty")
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			entity := new(T)
			err := it.Item().Value(func(val []byte) error {
				return decodeValue(val, entity)
			})
			if err != nil {
				return fmt.Errorf("could not decode value under %x: %w", it.Item().Key(), err)
			}
			*entities = append(*entities, entity)
		}
		return nil
	}
}
