package irrecoverable

import (
	"context"
	"runtime"

	"go.uber.org/atomic"
)

// Signaler delivers the first irrecoverable error of a component tree.
type Signaler struct {
	errChan   chan error
	errThrown *atomic.Bool
}

// NewSignaler returns a Signaler and the channel on which the first thrown
// error is delivered. The channel is closed after the error is sent.
func NewSignaler() (*Signaler, <-chan error) {
	errChan := make(chan error, 1)
	return &Signaler{
		errChan:   errChan,
		errThrown: atomic.NewBool(false),
	}, errChan
}

// Throw reports err unless another error was reported before, then terminates
// the calling goroutine. It replaces panics and log.Fatal inside components.
func (s *Signaler) Throw(err error) {
	defer runtime.Goexit()
	if s.errThrown.CAS(false, true) {
		s.errChan <- err
		close(s.errChan)
	}
}

// SignalerContext is a context which can also carry irrecoverable errors up
// to whoever started the component.
type SignalerContext interface {
	context.Context
	Throw(err error)
	sealed() // only WithSignaler creates SignalerContexts
}

type signalerCtx struct {
	context.Context
	*Signaler
}

func (sc signalerCtx) sealed() {}

// WithSignaler derives a SignalerContext and the channel its first error is
// delivered on.
func WithSignaler(parent context.Context) (SignalerContext, <-chan error) {
	sig, errChan := NewSignaler()
	return &signalerCtx{parent, sig}, errChan
}

// WithSignalerAndCancel is WithSignaler on a cancellable child of parent.
func WithSignalerAndCancel(parent context.Context) (SignalerContext, context.CancelFunc, <-chan error) {
	ctx, cancel := context.WithCancel(parent)
	irrecoverableCtx, errCh := WithSignaler(ctx)
	return irrecoverableCtx, cancel, errCh
}
