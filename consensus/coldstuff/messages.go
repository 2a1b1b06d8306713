package coldstuff

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/fedibtc/minimint/model/mint"
)

const (
	codeContribution uint8 = iota + 1
	codeCommit
)

// Contribution is sent by a peer to the leader of an epoch and carries the
// peer's proposal for that epoch.
type Contribution struct {
	Epoch uint64                `cbor:"1,keyasint"`
	Items []*mint.ConsensusItem `cbor:"2,keyasint"`
}

// Commit is broadcast by the leader of an epoch once a quorum of peers
// contributed. It carries the agreed contributions.
type Commit struct {
	Epoch         uint64                                 `cbor:"1,keyasint"`
	Contributions map[mint.PeerID][]*mint.ConsensusItem `cbor:"2,keyasint"`
}

// encMode sorts map keys, so every peer encodes the same commit identically.
var encMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("could not create cbor encoding mode: %s", err))
	}
	return mode
}()

// encode prefixes the cbor encoding of the message with its message code.
func encode(msg interface{}) ([]byte, error) {
	var code uint8
	switch msg.(type) {
	case *Contribution:
		code = codeContribution
	case *Commit:
		code = codeCommit
	default:
		return nil, fmt.Errorf("invalid message type (%T)", msg)
	}

	data, err := encMode.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("could not encode %T: %w", msg, err)
	}
	return append([]byte{code}, data...), nil
}

// decode reads the message code from the first byte and decodes the rest into
// the matching message type.
func decode(payload []byte) (interface{}, error) {
	if len(payload) == 0 {
		return nil, errors.New("empty payload")
	}

	code := payload[0]
	var msg interface{}
	switch code {
	case codeContribution:
		msg = &Contribution{}
	case codeCommit:
		msg = &Commit{}
	default:
		return nil, ErrUnknownMessageCode{code: code}
	}

	err := cbor.Unmarshal(payload[1:], msg)
	if err != nil {
		return nil, fmt.Errorf("could not decode message with code %d: %w", code, err)
	}
	return msg, nil
}

// validItems checks that every item is a well-formed consensus item.
func validItems(items []*mint.ConsensusItem) error {
	for i, item := range items {
		if item == nil {
			return fmt.Errorf("item %d is missing", i)
		}
		if item.Kind() == mint.ItemInvalid {
			return fmt.Errorf("item %d has no valid variant", i)
		}
	}
	return nil
}
