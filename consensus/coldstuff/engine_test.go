package coldstuff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedibtc/minimint/model/mint"
	"github.com/fedibtc/minimint/utils/unittest"
)

func newEngine(t *testing.T, me mint.PeerID, n int, opts ...OptionFunc) *Engine {
	e, err := New(unittest.Logger(), me, unittest.PeerIDListFixture(n), opts...)
	require.NoError(t, err)
	return e
}

func encodeMessage(t *testing.T, msg interface{}) []byte {
	payload, err := encode(msg)
	require.NoError(t, err)
	return payload
}

// federation routes the messages of a set of engines in FIFO order.
type federation struct {
	t       *testing.T
	engines map[mint.PeerID]*Engine
	queue   []envelope
	outputs map[mint.PeerID][]*mint.Batch
	faults  []mint.Fault
}

type envelope struct {
	from mint.PeerID
	msg  mint.TargetedMessage
}

func newFederation(t *testing.T, n int) *federation {
	f := &federation{
		t:       t,
		engines: make(map[mint.PeerID]*Engine),
		outputs: make(map[mint.PeerID][]*mint.Batch),
	}
	for i := 0; i < n; i++ {
		peer := mint.PeerID(i)
		f.engines[peer] = newEngine(t, peer, n)
	}
	return f
}

func (f *federation) record(peer mint.PeerID, step *mint.Step) {
	for _, msg := range step.Messages {
		f.queue = append(f.queue, envelope{from: peer, msg: msg})
	}
	f.outputs[peer] = append(f.outputs[peer], step.Output...)
	f.faults = append(f.faults, step.FaultLog...)
}

func (f *federation) propose(peer mint.PeerID, proposal mint.Proposal) {
	step, err := f.engines[peer].Propose(proposal)
	require.NoError(f.t, err)
	f.record(peer, step)
}

func (f *federation) flush() {
	for len(f.queue) > 0 {
		env := f.queue[0]
		f.queue = f.queue[1:]
		step, err := f.engines[env.msg.Target].HandleMessage(env.from, env.msg.Payload)
		require.NoError(f.t, err)
		f.record(env.msg.Target, step)
	}
}

func TestQuorum(t *testing.T) {
	cases := map[uint]uint{1: 1, 2: 2, 3: 3, 4: 3, 5: 4, 7: 5, 10: 7}
	for n, quorum := range cases {
		assert.Equal(t, quorum, Quorum(n), "n=%d", n)
	}
}

func TestNew_InvalidFederation(t *testing.T) {
	_, err := New(unittest.Logger(), 0, mint.PeerIDList{})
	assert.Error(t, err)

	_, err = New(unittest.Logger(), 5, unittest.PeerIDListFixture(4))
	assert.Error(t, err)

	_, err = New(unittest.Logger(), 0, mint.PeerIDList{0, 1, 1})
	assert.Error(t, err)
}

func TestSinglePeer_ProposalCommitsImmediately(t *testing.T) {
	e := newEngine(t, 0, 1)
	proposal := unittest.ProposalFixture(3)

	step, err := e.Propose(proposal)
	require.NoError(t, err)
	require.Len(t, step.Output, 1)
	assert.Empty(t, step.Messages)
	assert.Equal(t, uint64(0), step.Output[0].Epoch)
	assert.Equal(t, []*mint.ConsensusItem(proposal), step.Output[0].Contributions[0])
	assert.Equal(t, uint64(1), e.Epoch())
	assert.False(t, e.HasPendingInput())

	step, err = e.Propose(nil)
	require.NoError(t, err)
	require.Len(t, step.Output, 1)
	assert.True(t, step.Output[0].Contains(0), "empty proposals are contributions too")
}

func TestInitialEpoch(t *testing.T) {
	e := newEngine(t, 0, 1, WithInitialEpoch(42))
	assert.Equal(t, uint64(42), e.Epoch())

	step, err := e.Propose(nil)
	require.NoError(t, err)
	require.Len(t, step.Output, 1)
	assert.Equal(t, uint64(42), step.Output[0].Epoch)
}

func TestPropose_Twice(t *testing.T) {
	e := newEngine(t, 1, 4)

	step, err := e.Propose(unittest.ProposalFixture(1))
	require.NoError(t, err)
	assert.True(t, e.HasPendingInput())
	require.Len(t, step.Messages, 1)
	assert.Equal(t, mint.PeerID(0), step.Messages[0].Target)
	assert.Empty(t, step.Output)

	_, err = e.Propose(unittest.ProposalFixture(1))
	assert.ErrorIs(t, err, ErrAlreadyProposed)
}

func TestFederation_AgreesOnceQuorumContributed(t *testing.T) {
	f := newFederation(t, 4)
	proposals := map[mint.PeerID]mint.Proposal{
		0: unittest.ProposalFixture(1),
		1: unittest.ProposalFixture(2),
		2: unittest.ProposalFixture(0),
	}

	f.propose(0, proposals[0])
	f.propose(1, proposals[1])
	f.flush()
	assert.Empty(t, f.outputs[0], "two contributions are below the quorum of three")

	f.propose(2, proposals[2])
	f.flush()
	require.Empty(t, f.faults)

	for peer, engine := range f.engines {
		require.Len(t, f.outputs[peer], 1, "peer %d", peer)
		batch := f.outputs[peer][0]
		assert.Equal(t, uint64(0), batch.Epoch)
		assert.Equal(t, mint.PeerIDList{0, 1, 2}, batch.Peers())
		assert.False(t, batch.Contains(3))
		assert.Equal(t, uint64(1), engine.Epoch())
		assert.False(t, engine.HasPendingInput())
	}

	// every peer agrees on the same items in the same order
	reference := f.outputs[0][0].Items()
	for peer := range f.engines {
		items := f.outputs[peer][0].Items()
		require.Len(t, items, len(reference))
		for i := range items {
			assert.Equal(t, reference[i].Peer, items[i].Peer)
			assert.Equal(t, reference[i].Item.ID(), items[i].Item.ID())
		}
	}
}

func TestFederation_LeaderRotates(t *testing.T) {
	f := newFederation(t, 4)
	for epoch := uint64(0); epoch < 8; epoch++ {
		leader := f.engines[0].Leader(epoch)
		assert.Equal(t, mint.PeerID(epoch%4), leader)
		for peer := range f.engines {
			f.propose(peer, unittest.ProposalFixture(1))
		}
		f.flush()
	}
	require.Empty(t, f.faults)
	for peer, engine := range f.engines {
		assert.Equal(t, uint64(8), engine.Epoch())
		require.Len(t, f.outputs[peer], 8)
		for i, batch := range f.outputs[peer] {
			assert.Equal(t, uint64(i), batch.Epoch)
		}
	}
}

// A follower which receives commits ahead of time outputs them in order once
// the missing commit arrives.
func TestFollower_CatchUp(t *testing.T) {
	e := newEngine(t, 3, 4)

	commit := func(epoch uint64) []byte {
		return encodeMessage(t, &Commit{
			Epoch: epoch,
			Contributions: map[mint.PeerID][]*mint.ConsensusItem{
				0: unittest.ProposalFixture(1),
				1: unittest.ProposalFixture(1),
				2: unittest.ProposalFixture(1),
			},
		})
	}

	for _, epoch := range []uint64{2, 1} {
		step, err := e.HandleMessage(mint.PeerID(epoch), commit(epoch))
		require.NoError(t, err)
		assert.Empty(t, step.Output)
		assert.Empty(t, step.FaultLog)
	}

	step, err := e.HandleMessage(0, commit(0))
	require.NoError(t, err)
	require.Len(t, step.Output, 3)
	for i, batch := range step.Output {
		assert.Equal(t, uint64(i), batch.Epoch)
	}
	assert.Equal(t, uint64(3), e.Epoch())
}

// The leader of a later epoch already collected a quorum while the commit of
// the current epoch was missing.
func TestLeader_CommitsBufferedContributions(t *testing.T) {
	e := newEngine(t, 1, 4)

	for _, peer := range []mint.PeerID{0, 2, 3} {
		step, err := e.HandleMessage(peer, encodeMessage(t, &Contribution{Epoch: 1, Items: unittest.ProposalFixture(1)}))
		require.NoError(t, err)
		assert.Empty(t, step.Output)
	}

	step, err := e.HandleMessage(0, encodeMessage(t, &Commit{
		Epoch: 0,
		Contributions: map[mint.PeerID][]*mint.ConsensusItem{
			0: {}, 2: {}, 3: {},
		},
	}))
	require.NoError(t, err)
	require.Len(t, step.Output, 2)
	assert.Equal(t, uint64(0), step.Output[0].Epoch)
	assert.Equal(t, uint64(1), step.Output[1].Epoch)
	assert.Equal(t, mint.PeerIDList{0, 2, 3}, step.Output[1].Peers())

	// the commit of epoch 1 goes out to everyone else
	targets := make(mint.PeerIDList, 0, len(step.Messages))
	for _, msg := range step.Messages {
		targets = append(targets, msg.Target)
	}
	assert.Equal(t, mint.PeerIDList{0, 2, 3}, targets)
}

func TestHandleMessage_Faults(t *testing.T) {
	items := unittest.ProposalFixture(1)
	quorumSet := map[mint.PeerID][]*mint.ConsensusItem{1: items, 2: items, 3: items}

	cases := []struct {
		name    string
		sender  mint.PeerID
		payload func(t *testing.T) []byte
		kind    mint.FaultKind
	}{
		{
			name:    "unknown sender",
			sender:  9,
			payload: func(t *testing.T) []byte { return encodeMessage(t, &Contribution{Epoch: 0}) },
			kind:    mint.FaultUnknownSender,
		},
		{
			name:    "empty payload",
			sender:  1,
			payload: func(*testing.T) []byte { return nil },
			kind:    mint.FaultInvalidMessage,
		},
		{
			name:    "unknown code",
			sender:  1,
			payload: func(*testing.T) []byte { return []byte{0xff, 0x01} },
			kind:    mint.FaultInvalidMessage,
		},
		{
			name:    "undecodable body",
			sender:  1,
			payload: func(*testing.T) []byte { return []byte{codeContribution, 0xff, 0xff} },
			kind:    mint.FaultInvalidMessage,
		},
		{
			name:   "invalid item",
			sender: 1,
			payload: func(t *testing.T) []byte {
				return encodeMessage(t, &Contribution{Epoch: 0, Items: []*mint.ConsensusItem{{}}})
			},
			kind: mint.FaultInvalidMessage,
		},
		{
			name:    "contribution to non-leader",
			sender:  2,
			payload: func(t *testing.T) []byte { return encodeMessage(t, &Contribution{Epoch: 1}) },
			kind:    mint.FaultNotLeader,
		},
		{
			name:    "contribution too far ahead",
			sender:  1,
			payload: func(t *testing.T) []byte { return encodeMessage(t, &Contribution{Epoch: 100}) },
			kind:    mint.FaultEpochTooFarAhead,
		},
		{
			name:   "commit from non-leader",
			sender: 2,
			payload: func(t *testing.T) []byte {
				return encodeMessage(t, &Commit{Epoch: 1, Contributions: quorumSet})
			},
			kind: mint.FaultUnexpectedLeader,
		},
		{
			name:   "commit below quorum",
			sender: 1,
			payload: func(t *testing.T) []byte {
				return encodeMessage(t, &Commit{Epoch: 1, Contributions: map[mint.PeerID][]*mint.ConsensusItem{1: items}})
			},
			kind: mint.FaultInvalidProposalSet,
		},
		{
			name:   "commit with unknown contributor",
			sender: 1,
			payload: func(t *testing.T) []byte {
				return encodeMessage(t, &Commit{Epoch: 1, Contributions: map[mint.PeerID][]*mint.ConsensusItem{1: items, 2: items, 7: items}})
			},
			kind: mint.FaultInvalidProposalSet,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := newEngine(t, 0, 4)
			step, err := e.HandleMessage(c.sender, c.payload(t))
			require.NoError(t, err)
			require.Len(t, step.FaultLog, 1)
			assert.Equal(t, c.kind, step.FaultLog[0].Kind)
			assert.Equal(t, c.sender, step.FaultLog[0].Peer)
			assert.Empty(t, step.Output)
			assert.Empty(t, step.Messages)
			assert.Equal(t, uint64(0), e.Epoch())
		})
	}
}

func TestHandleMessage_DuplicateContribution(t *testing.T) {
	e := newEngine(t, 0, 4)
	payload := encodeMessage(t, &Contribution{Epoch: 0, Items: unittest.ProposalFixture(1)})

	step, err := e.HandleMessage(1, payload)
	require.NoError(t, err)
	assert.Empty(t, step.FaultLog)

	step, err = e.HandleMessage(1, payload)
	require.NoError(t, err)
	require.Len(t, step.FaultLog, 1)
	assert.Equal(t, mint.FaultDuplicateMessage, step.FaultLog[0].Kind)
}

func TestHandleMessage_StaleMessagesDropped(t *testing.T) {
	e := newEngine(t, 0, 1)
	_, err := e.Propose(nil)
	require.NoError(t, err)
	require.Equal(t, uint64(1), e.Epoch())

	step, err := e.HandleMessage(0, encodeMessage(t, &Contribution{Epoch: 0}))
	require.NoError(t, err)
	assert.Empty(t, step.FaultLog)
	assert.Empty(t, step.Output)
}
