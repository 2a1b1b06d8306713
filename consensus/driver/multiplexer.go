package driver

import (
	"context"
	"errors"
	"time"

	"github.com/fedibtc/minimint/model/mint"
)

// ErrTransportClosed is returned when the peer transport stops delivering messages.
var ErrTransportClosed = errors.New("transport inbound channel closed")

type eventKind int

const (
	eventTick eventKind = iota + 1
	eventMessage
	eventSubmission
)

func (k eventKind) String() string {
	switch k {
	case eventTick:
		return "tick"
	case eventMessage:
		return "message"
	case eventSubmission:
		return "submission"
	default:
		return "unknown"
	}
}

type event struct {
	kind       eventKind
	message    mint.InboundMessage
	submission *mint.Submission
}

// multiplexer races the driver's three event sources. Whichever is ready first
// wins; simultaneous readiness is resolved by the runtime's random choice, so
// no source is starved.
type multiplexer struct {
	ticks   <-chan time.Time
	inbound <-chan mint.InboundMessage
	intake  <-chan *mint.Submission
}

func newMultiplexer(ticks <-chan time.Time, inbound <-chan mint.InboundMessage, intake <-chan *mint.Submission) *multiplexer {
	return &multiplexer{
		ticks:   ticks,
		inbound: inbound,
		intake:  intake,
	}
}

// Next blocks until one of the sources yields an event or the context is done.
// A closed intake queue is disabled and no longer raced. A closed transport is
// an error.
func (m *multiplexer) Next(ctx context.Context) (event, error) {
	for {
		select {
		case <-ctx.Done():
			return event{}, ctx.Err()
		case <-m.ticks:
			return event{kind: eventTick}, nil
		case msg, ok := <-m.inbound:
			if !ok {
				return event{}, ErrTransportClosed
			}
			return event{kind: eventMessage, message: msg}, nil
		case sub, ok := <-m.intake:
			if !ok {
				m.intake = nil
				continue
			}
			return event{kind: eventSubmission, submission: sub}, nil
		}
	}
}
