package unittest

import (
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/require"
)

// RequireCloseBefore fails the test unless the channel closes within the duration.
func RequireCloseBefore(t testing.TB, c <-chan struct{}, duration time.Duration, message string) {
	select {
	case <-time.After(duration):
		require.Fail(t, "channel not closed in time: "+message)
	case <-c:
	}
}

// RequireNeverClosedWithin fails the test if the channel closes within the duration.
func RequireNeverClosedWithin(t testing.TB, c <-chan struct{}, duration time.Duration, message string) {
	select {
	case <-time.After(duration):
	case <-c:
		require.Fail(t, "channel closed before timeout: "+message)
	}
}

// RequireComponentsDoneBefore fails the test unless every component shuts
// down within the duration.
func RequireComponentsDoneBefore(t testing.TB, duration time.Duration, components ...interface{ Done() <-chan struct{} }) {
	for _, c := range components {
		RequireCloseBefore(t, c.Done(), duration, "component did not shut down")
	}
}

func TempDir(t testing.TB) string {
	dir, err := os.MkdirTemp("", "minimint-testing-temp-")
	require.NoError(t, err)
	return dir
}

func RunWithTempDir(t testing.TB, f func(string)) {
	dir := TempDir(t)
	defer os.RemoveAll(dir)
	f(dir)
}

// BadgerDB opens a quiet badger database in dir.
func BadgerDB(t testing.TB, dir string) *badger.DB {
	opts := badger.
		DefaultOptions(dir).
		WithKeepL0InMemory(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	return db
}

func RunWithBadgerDB(t testing.TB, f func(*badger.DB)) {
	RunWithTempDir(t, func(dir string) {
		db := BadgerDB(t, dir)
		defer db.Close()
		f(db)
	})
}
