package mint

import (
	"fmt"
)

// TargetedMessage is an outbound engine message addressed to a single peer. The
// payload is opaque to everyone but the engine.
type TargetedMessage struct {
	Target  PeerID
	Payload []byte
}

// InboundMessage is a message received from a peer.
type InboundMessage struct {
	Sender  PeerID
	Payload []byte
}

// FaultKind classifies misbehaviour observed by the engine.
type FaultKind string

const (
	FaultUnknownSender      FaultKind = "unknown_sender"
	FaultInvalidMessage     FaultKind = "invalid_message"
	FaultNotLeader          FaultKind = "not_leader"
	FaultDuplicateMessage   FaultKind = "duplicate_message"
	FaultUnexpectedLeader   FaultKind = "unexpected_leader"
	FaultEpochTooFarAhead   FaultKind = "epoch_too_far_ahead"
	FaultInvalidProposalSet FaultKind = "invalid_proposal_set"
)

// Fault is a record of observed peer misbehaviour. Faults are reported, never acted upon.
type Fault struct {
	Peer   PeerID
	Kind   FaultKind
	Reason string
}

func (f Fault) String() string {
	return fmt.Sprintf("peer %d: %s (%s)", f.Peer, f.Kind, f.Reason)
}

// Step is everything produced by a single engine invocation.
type Step struct {
	Output   []*Batch
	FaultLog []Fault
	Messages []TargetedMessage
}

// NewStep returns an empty step.
func NewStep() *Step {
	return &Step{}
}

// Extend appends the contents of another step.
func (s *Step) Extend(other *Step) {
	if other == nil {
		return
	}
	s.Output = append(s.Output, other.Output...)
	s.FaultLog = append(s.FaultLog, other.FaultLog...)
	s.Messages = append(s.Messages, other.Messages...)
}

// AllContain returns true if every output batch contains the given peer's
// contribution. It is false for a step without output.
func (s *Step) AllContain(peer PeerID) bool {
	if len(s.Output) == 0 {
		return false
	}
	for _, batch := range s.Output {
		if !batch.Contains(peer) {
			return false
		}
	}
	return true
}
