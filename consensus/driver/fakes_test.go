package driver_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/fedibtc/minimint/model/mint"
)

// fakeEngine is a scriptable consensus engine. Once a proposal was made the
// engine reports pending input until a step outputs a batch, unless
// stickyInput is false.
type fakeEngine struct {
	mu          sync.Mutex
	epoch       uint64
	pending     bool
	stickyInput bool
	proposals   []mint.Proposal
	onPropose   func(epoch uint64, proposal mint.Proposal) (*mint.Step, error)
	onMessage   func(msg mint.InboundMessage) (*mint.Step, error)
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		stickyInput: true,
		onPropose: func(uint64, mint.Proposal) (*mint.Step, error) {
			return mint.NewStep(), nil
		},
		onMessage: func(mint.InboundMessage) (*mint.Step, error) {
			return mint.NewStep(), nil
		},
	}
}

func (e *fakeEngine) HasPendingInput() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

func (e *fakeEngine) Propose(proposal mint.Proposal) (*mint.Step, error) {
	e.mu.Lock()
	e.proposals = append(e.proposals, proposal)
	e.pending = e.stickyInput
	epoch := e.epoch
	onPropose := e.onPropose
	e.mu.Unlock()

	step, err := onPropose(epoch, proposal)
	e.advance(step)
	return step, err
}

func (e *fakeEngine) HandleMessage(sender mint.PeerID, payload []byte) (*mint.Step, error) {
	e.mu.Lock()
	onMessage := e.onMessage
	e.mu.Unlock()

	step, err := onMessage(mint.InboundMessage{Sender: sender, Payload: payload})
	e.advance(step)
	return step, err
}

func (e *fakeEngine) advance(step *mint.Step) {
	if step == nil || len(step.Output) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.epoch = step.Output[len(step.Output)-1].Epoch + 1
	e.pending = false
}

func (e *fakeEngine) Epoch() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.epoch
}

func (e *fakeEngine) Proposals() []mint.Proposal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]mint.Proposal(nil), e.proposals...)
}

// recordingState buffers submissions and records every batch application with
// its dispatch and completion times. Applications of an epoch block while a
// gate for that epoch is open.
type recordingState struct {
	mu          sync.Mutex
	pending     mint.Proposal
	gates       map[uint64]chan struct{}
	failures    map[uint64]error
	panics      map[uint64]bool
	responses   map[uint64][]*mint.SigResponse
	applied     []uint64
	startedAt   map[uint64]time.Time
	finishedAt  map[uint64]time.Time
	started     chan uint64
	inFlight    *atomic.Int32
	maxInFlight *atomic.Int32
}

func newRecordingState() *recordingState {
	return &recordingState{
		gates:       make(map[uint64]chan struct{}),
		failures:    make(map[uint64]error),
		panics:      make(map[uint64]bool),
		responses:   make(map[uint64][]*mint.SigResponse),
		startedAt:   make(map[uint64]time.Time),
		finishedAt:  make(map[uint64]time.Time),
		started:     make(chan uint64, 64),
		inFlight:    atomic.NewInt32(0),
		maxInFlight: atomic.NewInt32(0),
	}
}

// Gate makes the application of the given epoch block until the returned
// function is called.
func (s *recordingState) Gate(epoch uint64) func() {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[epoch] = gate
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (s *recordingState) GetConsensusProposal() mint.Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(mint.Proposal(nil), s.pending...)
}

func (s *recordingState) SubmitClientRequest(req *mint.ClientRequest) error {
	if len(req.Messages) == 0 {
		return mint.NewRejectErrorf(mint.RejectEmpty, "request has no messages")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, mint.NewClientRequestItem(req))
	return nil
}

func (s *recordingState) ProcessConsensusOutcome(_ context.Context, batch *mint.Batch) ([]*mint.SigResponse, error) {
	current := s.inFlight.Inc()
	defer s.inFlight.Dec()
	for {
		peak := s.maxInFlight.Load()
		if current <= peak || s.maxInFlight.CAS(peak, current) {
			break
		}
	}

	s.mu.Lock()
	s.startedAt[batch.Epoch] = time.Now()
	gate := s.gates[batch.Epoch]
	failure := s.failures[batch.Epoch]
	panics := s.panics[batch.Epoch]
	responses := s.responses[batch.Epoch]
	s.mu.Unlock()
	s.started <- batch.Epoch

	if gate != nil {
		<-gate
	}
	if panics {
		panic(fmt.Sprintf("corrupted ledger at epoch %d", batch.Epoch))
	}
	if failure != nil {
		return nil, failure
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, batch.Epoch)
	s.finishedAt[batch.Epoch] = time.Now()
	return responses, nil
}

func (s *recordingState) Applied() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.applied...)
}

func (s *recordingState) Times(epoch uint64) (time.Time, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt[epoch], s.finishedAt[epoch]
}

type sentMessage struct {
	target  mint.PeerID
	payload string
}

type fakeTransport struct {
	mu      sync.Mutex
	inbound chan mint.InboundMessage
	sent    []sentMessage
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inbound: make(chan mint.InboundMessage, 64)}
}

func (t *fakeTransport) Inbound() <-chan mint.InboundMessage {
	return t.inbound
}

func (t *fakeTransport) Send(_ context.Context, target mint.PeerID, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, sentMessage{target: target, payload: string(payload)})
	return nil
}

func (t *fakeTransport) Sent() []sentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]sentMessage(nil), t.sent...)
}

// deliver injects a message from a peer.
func (t *fakeTransport) deliver(sender mint.PeerID, payload string) {
	t.inbound <- mint.InboundMessage{Sender: sender, Payload: []byte(payload)}
}

type fakeSink struct {
	delivered chan []*mint.SigResponse
	err       error
}

func newFakeSink() *fakeSink {
	return &fakeSink{delivered: make(chan []*mint.SigResponse, 64)}
}

func (s *fakeSink) Deliver(ctx context.Context, responses []*mint.SigResponse) error {
	if s.err != nil {
		return s.err
	}
	select {
	case s.delivered <- responses:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
