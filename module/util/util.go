package util

import (
	"context"
	"sync"

	"github.com/fedibtc/minimint/module"
)

// AllReady returns a channel which closes once every component is ready.
func AllReady(components ...module.ReadyDoneAware) <-chan struct{} {
	channels := make([]<-chan struct{}, 0, len(components))
	for _, c := range components {
		channels = append(channels, c.Ready())
	}
	return AllClosed(channels...)
}

// AllDone returns a channel which closes once every component is done.
func AllDone(components ...module.ReadyDoneAware) <-chan struct{} {
	channels := make([]<-chan struct{}, 0, len(components))
	for _, c := range components {
		channels = append(channels, c.Done())
	}
	return AllClosed(channels...)
}

// AllClosed returns a channel which closes once every input channel is closed.
func AllClosed(channels ...<-chan struct{}) <-chan struct{} {
	all := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(len(channels))
	for _, ch := range channels {
		go func(ch <-chan struct{}) {
			defer wg.Done()
			<-ch
		}(ch)
	}

	go func() {
		wg.Wait()
		close(all)
	}()

	return all
}

// WaitReady blocks until ready closes or ctx is done. A ready channel which
// closed concurrently with the cancellation still counts as ready.
func WaitReady(ctx context.Context, ready <-chan struct{}) error {
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		if CheckClosed(ready) {
			return nil
		}
		return ctx.Err()
	}
}

// CheckClosed reports whether the channel is closed, without blocking.
func CheckClosed(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}

// WaitError blocks until an error arrives or done closes. An error which is
// available at the same time as done always wins, since a component closes
// done after throwing and missing the error would mean continuing unsafely.
func WaitError(errChan <-chan error, done <-chan struct{}) error {
	select {
	case err := <-errChan:
		return err
	case <-done:
		select {
		case err := <-errChan:
			return err
		default:
			return nil
		}
	}
}
