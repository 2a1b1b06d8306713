package zmq

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-zeromq/zmq4"

	"github.com/fedibtc/minimint/model/mint"
)

// Envelope is the wire format of a message between peers.
type Envelope struct {
	From    mint.PeerID `cbor:"1,keyasint"`
	Payload []byte      `cbor:"2,keyasint"`
}

func encodeEnvelope(env *Envelope) ([]byte, error) {
	data, err := cbor.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("could not encode envelope: %w", err)
	}
	return data, nil
}

func decodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	err := cbor.Unmarshal(data, &env)
	if err != nil {
		return nil, fmt.Errorf("could not decode envelope: %w", err)
	}
	return &env, nil
}

// identity is the socket identity a peer's dealers announce to routers.
func identity(peer mint.PeerID) zmq4.SocketIdentity {
	return zmq4.SocketIdentity(fmt.Sprintf("peer-%d", peer))
}
