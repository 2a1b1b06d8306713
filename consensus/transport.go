package consensus

import (
	"context"

	"github.com/fedibtc/minimint/model/mint"
)

// Transport carries engine messages between federation members.
type Transport interface {

	// Inbound returns the channel of messages received from peers. Messages of
	// a single sender are delivered in order.
	Inbound() <-chan mint.InboundMessage

	// Send blocks until the payload was handed to the network for the target peer.
	Send(ctx context.Context, target mint.PeerID, payload []byte) error
}

// ResponseSink receives completed signature responses on their way to clients.
type ResponseSink interface {

	// Deliver blocks while the response queue is full. An error means the
	// receiving side is gone.
	Deliver(ctx context.Context, responses []*mint.SigResponse) error
}
