package mint

import (
	"encoding/binary"
)

// ClientRequest is a request from a client to have a set of blinded messages signed
// by the federation.
type ClientRequest struct {
	Messages [][]byte `cbor:"1,keyasint" json:"messages"`
}

// ID returns the digest of the request messages.
func (r *ClientRequest) ID() Identifier {
	return MakeID(r.Messages...)
}

// PartialSignature carries one peer's signature shares over all messages of an
// accepted client request, in message order.
type PartialSignature struct {
	RequestID Identifier `cbor:"1,keyasint"`
	Peer      PeerID     `cbor:"2,keyasint"`
	Shares    [][]byte   `cbor:"3,keyasint"`
}

// ItemKind distinguishes the variants of a ConsensusItem.
type ItemKind uint8

const (
	ItemInvalid ItemKind = iota
	ItemClientRequest
	ItemPartialSignature
)

func (k ItemKind) String() string {
	switch k {
	case ItemClientRequest:
		return "client_request"
	case ItemPartialSignature:
		return "partial_signature"
	default:
		return "invalid"
	}
}

// ConsensusItem is the unit a peer contributes to an epoch. Exactly one of its
// fields is set.
type ConsensusItem struct {
	ClientRequest    *ClientRequest    `cbor:"1,keyasint,omitempty"`
	PartialSignature *PartialSignature `cbor:"2,keyasint,omitempty"`
}

// Kind returns which variant the item holds.
func (c *ConsensusItem) Kind() ItemKind {
	switch {
	case c.ClientRequest != nil && c.PartialSignature == nil:
		return ItemClientRequest
	case c.PartialSignature != nil && c.ClientRequest == nil:
		return ItemPartialSignature
	default:
		return ItemInvalid
	}
}

// ID returns a digest identifying the item. Partial signatures are identified by
// request and signer, so a peer has at most one share set per request.
func (c *ConsensusItem) ID() Identifier {
	switch c.Kind() {
	case ItemClientRequest:
		reqID := c.ClientRequest.ID()
		return MakeID([]byte{byte(ItemClientRequest)}, reqID[:])
	case ItemPartialSignature:
		var peer [2]byte
		binary.BigEndian.PutUint16(peer[:], uint16(c.PartialSignature.Peer))
		return MakeID([]byte{byte(ItemPartialSignature)}, c.PartialSignature.RequestID[:], peer[:])
	default:
		return ZeroID
	}
}

// NewClientRequestItem wraps a client request into a consensus item.
func NewClientRequestItem(req *ClientRequest) *ConsensusItem {
	return &ConsensusItem{ClientRequest: req}
}

// NewPartialSignatureItem wraps a partial signature into a consensus item.
func NewPartialSignatureItem(sig *PartialSignature) *ConsensusItem {
	return &ConsensusItem{PartialSignature: sig}
}

// Proposal is the set of items this node contributes to an epoch. It may be empty.
type Proposal []*ConsensusItem
