package driver

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/fedibtc/minimint/utils/unittest"
)

func TestSingleFlight_Empty(t *testing.T) {
	s := NewSingleFlight()
	assert.False(t, s.InFlight())
	assert.NoError(t, s.Wait())
}

func TestSingleFlight_ReplaceWaitsForPrevious(t *testing.T) {
	s := NewSingleFlight()
	release := make(chan struct{})
	first := atomic.NewBool(false)
	require.NoError(t, s.Replace(func() error {
		<-release
		first.Store(true)
		return nil
	}))
	assert.True(t, s.InFlight())

	replaced := make(chan struct{})
	second := atomic.NewBool(false)
	go func() {
		defer close(replaced)
		assert.NoError(t, s.Replace(func() error {
			second.Store(first.Load())
			return nil
		}))
	}()
	unittest.RequireNeverClosedWithin(t, replaced, 50*time.Millisecond, "replace returned while previous job in flight")

	close(release)
	unittest.RequireCloseBefore(t, replaced, time.Second, "replace did not return")
	require.NoError(t, s.Wait())
	assert.True(t, second.Load(), "second job ran before the first completed")
	assert.False(t, s.InFlight())
}

func TestSingleFlight_FailureSurfacesOnReplace(t *testing.T) {
	s := NewSingleFlight()
	expected := errors.New("failed")
	require.NoError(t, s.Replace(func() error { return expected }))

	launched := atomic.NewBool(false)
	err := s.Replace(func() error {
		launched.Store(true)
		return nil
	})
	assert.ErrorIs(t, err, expected)
	assert.False(t, s.InFlight())
	assert.False(t, launched.Load())
}

func TestSingleFlight_PanicBecomesError(t *testing.T) {
	s := NewSingleFlight()
	require.NoError(t, s.Replace(func() error { panic("boom") }))

	err := s.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.NoError(t, s.Wait())
}
