// (c) 2019 Dapper Labs - ALL RIGHTS RESERVED

package coldstuff

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fedibtc/minimint/consensus"
	"github.com/fedibtc/minimint/model/mint"
)

// Engine implements a simple leader-based agreement on epoch batches. It's
// similar to a one-chain BFT consensus algorithm, finalizing a batch as soon
// as the leader of the epoch collected contributions from a quorum of peers.
// The leader of an epoch rotates through the sorted peers.
//
// The engine does not perform I/O. Every input returns a step with the
// messages to send and the batches agreed. It is not safe for concurrent use.
//
// There is no view change: if the leader of an epoch is unavailable, the
// federation stalls until it returns.
type Engine struct {
	log      zerolog.Logger
	me       mint.PeerID
	peers    mint.PeerIDList
	quorum   uint
	maxAhead uint64
	epoch    uint64
	proposed bool
	rounds   map[uint64]*round      // contributions collected as leader
	commits  map[uint64]*mint.Batch // commits received ahead of the current epoch
}

var _ consensus.Engine = (*Engine)(nil)

// New creates a coldstuff engine for the given federation.
func New(log zerolog.Logger, me mint.PeerID, peers mint.PeerIDList, opts ...OptionFunc) (*Engine, error) {

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(peers) == 0 {
		return nil, fmt.Errorf("federation has no peers")
	}
	sorted := peers.Sorted()
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, fmt.Errorf("duplicate peer %d", sorted[i])
		}
	}
	if !sorted.Contains(me) {
		return nil, fmt.Errorf("local peer %d is not part of the federation", me)
	}

	e := &Engine{
		log:      log.With().Str("engine", "coldstuff").Logger(),
		me:       me,
		peers:    sorted,
		quorum:   Quorum(uint(len(sorted))),
		maxAhead: cfg.MaxFutureEpochs,
		epoch:    cfg.InitialEpoch,
		rounds:   make(map[uint64]*round),
		commits:  make(map[uint64]*mint.Batch),
	}

	return e, nil
}

// Quorum returns the number of contributions needed to agree on a batch among
// n peers, tolerating (n-1)/3 faulty ones.
func Quorum(n uint) uint {
	return n - (n-1)/3
}

// Epoch returns the epoch the engine currently agrees on.
func (e *Engine) Epoch() uint64 {
	return e.epoch
}

// HasPendingInput returns true if the node already proposed in the current epoch.
func (e *Engine) HasPendingInput() bool {
	return e.proposed
}

// Leader returns the leader of the given epoch.
func (e *Engine) Leader(epoch uint64) mint.PeerID {
	return e.peers[epoch%uint64(len(e.peers))]
}

// Propose contributes the node's proposal to the current epoch. As leader the
// contribution is tallied locally, otherwise it is sent to the leader.
func (e *Engine) Propose(proposal mint.Proposal) (*mint.Step, error) {
	if e.proposed {
		return nil, ErrAlreadyProposed
	}
	e.proposed = true

	step := mint.NewStep()
	leader := e.Leader(e.epoch)

	log := e.log.With().
		Uint64("epoch", e.epoch).
		Uint16("leader", uint16(leader)).
		Int("items", len(proposal)).
		Logger()

	if leader == e.me {
		e.round(e.epoch).Tally(e.me, proposal)
		log.Debug().Msg("own contribution tallied")
		err := e.progress(step)
		if err != nil {
			return nil, err
		}
		return step, nil
	}

	payload, err := encode(&Contribution{Epoch: e.epoch, Items: proposal})
	if err != nil {
		return nil, fmt.Errorf("could not encode contribution: %w", err)
	}
	step.Messages = append(step.Messages, mint.TargetedMessage{Target: leader, Payload: payload})
	log.Debug().Msg("contribution sent to leader")

	return step, nil
}

// HandleMessage processes a message from a peer. Misbehaviour is reported in
// the step's fault log. Errors are only returned for local failures.
func (e *Engine) HandleMessage(sender mint.PeerID, payload []byte) (*mint.Step, error) {
	step := mint.NewStep()

	if !e.peers.Contains(sender) {
		e.fault(step, sender, mint.FaultUnknownSender, "sender is not a federation member")
		return step, nil
	}

	msg, err := decode(payload)
	if err != nil {
		e.fault(step, sender, mint.FaultInvalidMessage, err.Error())
		return step, nil
	}

	switch m := msg.(type) {
	case *Contribution:
		err = e.onContribution(step, sender, m)
	case *Commit:
		err = e.onCommit(step, sender, m)
	default:
		err = fmt.Errorf("invalid message type (%T)", msg)
	}
	if err != nil {
		return nil, err
	}

	return step, nil
}

func (e *Engine) onContribution(step *mint.Step, sender mint.PeerID, c *Contribution) error {
	if c.Epoch < e.epoch {
		e.log.Debug().
			Uint16("sender", uint16(sender)).
			Uint64("epoch", c.Epoch).
			Msg("dropping stale contribution")
		return nil
	}
	if c.Epoch > e.epoch+e.maxAhead {
		e.fault(step, sender, mint.FaultEpochTooFarAhead, fmt.Sprintf("contribution for epoch %d at epoch %d", c.Epoch, e.epoch))
		return nil
	}
	if e.Leader(c.Epoch) != e.me {
		e.fault(step, sender, mint.FaultNotLeader, fmt.Sprintf("contribution for epoch %d led by peer %d", c.Epoch, e.Leader(c.Epoch)))
		return nil
	}
	err := validItems(c.Items)
	if err != nil {
		e.fault(step, sender, mint.FaultInvalidMessage, err.Error())
		return nil
	}

	r := e.round(c.Epoch)
	if r.Contributed(sender) {
		e.fault(step, sender, mint.FaultDuplicateMessage, fmt.Sprintf("second contribution for epoch %d", c.Epoch))
		return nil
	}
	r.Tally(sender, c.Items)

	e.log.Debug().
		Uint16("sender", uint16(sender)).
		Uint64("epoch", c.Epoch).
		Uint("votes", r.Votes()).
		Uint("quorum", e.quorum).
		Msg("contribution received")

	return e.progress(step)
}

func (e *Engine) onCommit(step *mint.Step, sender mint.PeerID, c *Commit) error {
	if c.Epoch < e.epoch {
		e.log.Debug().
			Uint16("sender", uint16(sender)).
			Uint64("epoch", c.Epoch).
			Msg("dropping stale commit")
		return nil
	}
	if c.Epoch > e.epoch+e.maxAhead {
		e.fault(step, sender, mint.FaultEpochTooFarAhead, fmt.Sprintf("commit for epoch %d at epoch %d", c.Epoch, e.epoch))
		return nil
	}
	if e.Leader(c.Epoch) != sender {
		e.fault(step, sender, mint.FaultUnexpectedLeader, fmt.Sprintf("commit for epoch %d led by peer %d", c.Epoch, e.Leader(c.Epoch)))
		return nil
	}
	if _, ok := e.commits[c.Epoch]; ok {
		e.fault(step, sender, mint.FaultDuplicateMessage, fmt.Sprintf("second commit for epoch %d", c.Epoch))
		return nil
	}
	err := e.validContributions(c.Contributions)
	if err != nil {
		e.fault(step, sender, mint.FaultInvalidProposalSet, err.Error())
		return nil
	}

	batch := mint.NewBatch(c.Epoch)
	for peer, items := range c.Contributions {
		if items == nil {
			items = []*mint.ConsensusItem{}
		}
		batch.Contributions[peer] = items
	}
	e.commits[c.Epoch] = batch

	return e.progress(step)
}

func (e *Engine) validContributions(contributions map[mint.PeerID][]*mint.ConsensusItem) error {
	if uint(len(contributions)) < e.quorum {
		return fmt.Errorf("%d contributions below quorum of %d", len(contributions), e.quorum)
	}
	for peer, items := range contributions {
		if !e.peers.Contains(peer) {
			return fmt.Errorf("contribution by unknown peer %d", peer)
		}
		err := validItems(items)
		if err != nil {
			return fmt.Errorf("invalid contribution by peer %d: %w", peer, err)
		}
	}
	return nil
}

// progress agrees on as many consecutive epochs as possible, starting at the
// current one. As leader an epoch is agreed once the quorum is reached, as
// follower once the leader's commit is buffered.
func (e *Engine) progress(step *mint.Step) error {
	for {
		var batch *mint.Batch

		if e.Leader(e.epoch) == e.me {
			r, ok := e.rounds[e.epoch]
			if !ok || r.Votes() < e.quorum {
				return nil
			}
			batch = r.Batch()

			payload, err := encode(&Commit{Epoch: batch.Epoch, Contributions: batch.Contributions})
			if err != nil {
				return fmt.Errorf("could not encode commit: %w", err)
			}
			for _, peer := range e.peers {
				if peer == e.me {
					continue
				}
				step.Messages = append(step.Messages, mint.TargetedMessage{Target: peer, Payload: payload})
			}
		} else {
			var ok bool
			batch, ok = e.commits[e.epoch]
			if !ok {
				return nil
			}
		}

		e.log.Info().
			Uint64("epoch", batch.Epoch).
			Int("contributors", len(batch.Contributions)).
			Int("items", batch.Size()).
			Msg("batch committed")

		step.Output = append(step.Output, batch)
		delete(e.rounds, e.epoch)
		delete(e.commits, e.epoch)
		e.epoch++
		e.proposed = false
	}
}

// round returns the round cache for the given epoch, creating it if needed.
func (e *Engine) round(epoch uint64) *round {
	r, ok := e.rounds[epoch]
	if !ok {
		r = newRound(epoch)
		e.rounds[epoch] = r
	}
	return r
}

func (e *Engine) fault(step *mint.Step, peer mint.PeerID, kind mint.FaultKind, reason string) {
	e.log.Debug().
		Uint16("peer", uint16(peer)).
		Str("fault", string(kind)).
		Str("reason", reason).
		Msg("peer misbehaviour")
	step.FaultLog = append(step.FaultLog, mint.Fault{Peer: peer, Kind: kind, Reason: reason})
}
