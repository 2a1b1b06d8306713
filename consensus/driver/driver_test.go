package driver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/fedibtc/minimint/consensus/driver"
	"github.com/fedibtc/minimint/consensus/mocks"
	"github.com/fedibtc/minimint/model/mint"
	"github.com/fedibtc/minimint/module/irrecoverable"
	"github.com/fedibtc/minimint/module/metrics"
	"github.com/fedibtc/minimint/utils/unittest"
)

const me = mint.PeerID(0)

func TestDriver(t *testing.T) {
	suite.Run(t, new(DriverSuite))
}

type DriverSuite struct {
	suite.Suite

	engine    *fakeEngine
	state     *recordingState
	transport *fakeTransport
	sink      *fakeSink
	intake    chan *mint.Submission

	driver *driver.Driver
	cancel context.CancelFunc
	errs   <-chan error
}

func (s *DriverSuite) SetupTest() {
	s.engine = newFakeEngine()
	s.state = newRecordingState()
	s.transport = newFakeTransport()
	s.sink = newFakeSink()
	s.intake = make(chan *mint.Submission, 4)
}

func (s *DriverSuite) TearDownTest() {
	if s.cancel != nil {
		s.cancel()
		unittest.RequireCloseBefore(s.T(), s.driver.Done(), time.Second, "driver did not stop")
	}
}

// create builds the driver with a long nominal period, so that the timer only
// fires in tests which ask for it.
func (s *DriverSuite) create(opts ...driver.OptionFunc) {
	opts = append([]driver.OptionFunc{
		driver.WithNominalPeriod(time.Hour),
		driver.WithFastRetryPeriod(time.Hour),
	}, opts...)

	var err error
	s.driver, err = driver.New(
		unittest.Logger(),
		metrics.NewNoopCollector(),
		me,
		s.engine,
		s.state,
		s.transport,
		s.sink,
		s.intake,
		opts...,
	)
	s.Require().NoError(err)
}

func (s *DriverSuite) start() {
	var ctx irrecoverable.SignalerContext
	ctx, s.cancel, s.errs = irrecoverable.WithSignalerAndCancel(context.Background())
	s.driver.Start(ctx)
	unittest.RequireCloseBefore(s.T(), s.driver.Ready(), time.Second, "driver did not start")
}

func (s *DriverSuite) run(opts ...driver.OptionFunc) {
	s.create(opts...)
	s.start()
}

// requireFatal waits for the driver to throw an irrecoverable error.
func (s *DriverSuite) requireFatal() error {
	select {
	case err := <-s.errs:
		s.Require().Error(err)
		unittest.RequireCloseBefore(s.T(), s.driver.Done(), time.Second, "driver did not stop after fatal error")
		s.cancel()
		s.cancel = nil
		return err
	case <-time.After(time.Second):
		s.Require().Fail("driver did not throw")
		return nil
	}
}

func (s *DriverSuite) requireNoFatal() {
	select {
	case err := <-s.errs:
		s.Require().NoError(err, "unexpected irrecoverable error")
	default:
	}
}

func (s *DriverSuite) submit(req *mint.ClientRequest) *mint.Submission {
	sub := mint.NewSubmission(req)
	select {
	case s.intake <- sub:
	case <-time.After(time.Second):
		s.Require().Fail("intake queue blocked")
	}
	return sub
}

func (s *DriverSuite) requireResult(sub *mint.Submission) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := sub.Result(ctx)
	s.Require().NotErrorIs(err, context.DeadlineExceeded, "submission was not resolved")
	return err
}

func (s *DriverSuite) requireStarted(epoch uint64) {
	select {
	case started := <-s.state.started:
		s.Require().Equal(epoch, started)
	case <-time.After(time.Second):
		s.Require().Failf("batch not dispatched", "epoch %d", epoch)
	}
}

func (s *DriverSuite) requireNotStarted(within time.Duration) {
	select {
	case started := <-s.state.started:
		s.Require().Failf("batch dispatched too early", "epoch %d", started)
	case <-time.After(within):
	}
}

// outputOnMessage makes every peer message agree on the given epochs in turn,
// with the given contributors.
func (s *DriverSuite) outputOnMessage(contributors func(epoch uint64) []mint.PeerID, epochs ...uint64) {
	next := 0
	s.engine.onMessage = func(mint.InboundMessage) (*mint.Step, error) {
		if next >= len(epochs) {
			return mint.NewStep(), nil
		}
		epoch := epochs[next]
		next++
		return &mint.Step{Output: []*mint.Batch{unittest.BatchFixture(epoch, contributors(epoch)...)}}, nil
	}
}

func withMe(uint64) []mint.PeerID    { return []mint.PeerID{me, 1, 2} }
func withoutMe(uint64) []mint.PeerID { return []mint.PeerID{1, 2, 3} }

// A single member federation: a submitted request lands in the next proposal,
// is agreed immediately and the timer stays at the nominal period.
func (s *DriverSuite) TestSingleNode_SubmitProposeApply() {
	s.engine.onPropose = func(epoch uint64, proposal mint.Proposal) (*mint.Step, error) {
		batch := mint.NewBatch(epoch)
		batch.Contributions[me] = proposal
		return &mint.Step{Output: []*mint.Batch{batch}}, nil
	}
	s.run(driver.WithNominalPeriod(50 * time.Millisecond))

	req := unittest.ClientRequestFixture(2)
	s.Require().NoError(s.requireResult(s.submit(req)))

	s.Require().Eventually(func() bool {
		for _, proposal := range s.engine.Proposals() {
			for _, item := range proposal {
				if item.ClientRequest == req {
					return true
				}
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	s.Require().Eventually(func() bool { return len(s.state.Applied()) > 0 }, time.Second, 10*time.Millisecond)
	s.Assert().Equal(50*time.Millisecond, s.driver.TimerPeriod())
	s.requireNoFatal()
}

// A tick while the engine holds this node's proposal must not propose again.
func (s *DriverSuite) TestNoDoubleProposal() {
	s.run(driver.WithNominalPeriod(5 * time.Millisecond))

	s.Require().Eventually(func() bool { return len(s.engine.Proposals()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	s.Assert().Len(s.engine.Proposals(), 1)
}

// Without pending input every tick proposes.
func (s *DriverSuite) TestProposesOnEveryTickWithoutPendingInput() {
	s.engine.stickyInput = false
	s.run(driver.WithNominalPeriod(5 * time.Millisecond))

	s.Require().Eventually(func() bool { return len(s.engine.Proposals()) >= 3 }, time.Second, 5*time.Millisecond)
}

// Three epochs without this node's contribution drop the timer to fast retry;
// it stays there until a batch includes this node again.
func (s *DriverSuite) TestPacingAdaptation() {
	fast := 20 * time.Minute
	nominal := time.Hour
	contributors := func(epoch uint64) []mint.PeerID {
		if epoch < 3 {
			return withoutMe(epoch)
		}
		return withMe(epoch)
	}
	s.outputOnMessage(contributors, 0, 1, 2, 3)
	s.run(driver.WithNominalPeriod(nominal), driver.WithFastRetryPeriod(fast))
	s.Require().Equal(nominal, s.driver.TimerPeriod())

	for epoch := uint64(0); epoch < 3; epoch++ {
		s.transport.deliver(1, "batch")
		s.requireStarted(epoch)
		s.Assert().Equal(fast, s.driver.TimerPeriod(), "epoch %d lacks own contribution", epoch)
	}

	// a message without output leaves the period alone
	s.engine.mu.Lock()
	onMessage := s.engine.onMessage
	s.engine.onMessage = func(mint.InboundMessage) (*mint.Step, error) { return mint.NewStep(), nil }
	s.engine.mu.Unlock()
	s.transport.deliver(1, "noise")
	s.Require().Eventually(func() bool { return len(s.transport.inbound) == 0 }, time.Second, 5*time.Millisecond)
	s.Assert().Equal(fast, s.driver.TimerPeriod())

	s.engine.mu.Lock()
	s.engine.onMessage = onMessage
	s.engine.mu.Unlock()
	s.transport.deliver(1, "batch")
	s.requireStarted(3)
	s.Assert().Equal(nominal, s.driver.TimerPeriod())
}

// Epoch 2's batch must not be dispatched before epoch 1's application returned.
func (s *DriverSuite) TestSingleFlightPreservesOrder() {
	release := s.state.Gate(1)
	s.outputOnMessage(withMe, 1, 2)
	s.run()

	s.transport.deliver(1, "first")
	s.requireStarted(1)
	s.transport.deliver(1, "second")
	s.requireNotStarted(100 * time.Millisecond)

	release()
	s.requireStarted(2)
	s.Require().Eventually(func() bool { return len(s.state.Applied()) == 2 }, time.Second, 5*time.Millisecond)

	s.Assert().Equal([]uint64{1, 2}, s.state.Applied())
	s.Assert().Equal(int32(1), s.state.maxInFlight.Load())
	_, firstDone := s.state.Times(1)
	secondStart, _ := s.state.Times(2)
	s.Assert().False(secondStart.Before(firstDone), "epoch 2 dispatched before epoch 1 completed")
}

// Several batches of one step are applied in order by a single job.
func (s *DriverSuite) TestMultipleBatchesInOneStep() {
	s.engine.onMessage = func(mint.InboundMessage) (*mint.Step, error) {
		return &mint.Step{Output: []*mint.Batch{
			unittest.BatchFixture(4, me),
			unittest.BatchFixture(5, 1),
			unittest.BatchFixture(6, me),
		}}, nil
	}
	s.run(driver.WithFastRetryPeriod(30 * time.Minute))

	s.transport.deliver(1, "catch up")
	s.Require().Eventually(func() bool { return len(s.state.Applied()) == 3 }, time.Second, 5*time.Millisecond)
	s.Assert().Equal([]uint64{4, 5, 6}, s.state.Applied())
	s.Assert().Equal(uint64(7), s.driver.Epoch())
	s.Assert().Equal(30*time.Minute, s.driver.TimerPeriod(), "epoch 5 lacks own contribution")
}

// A submission while a batch is still being applied is buffered and shows up
// in the next proposal.
func (s *DriverSuite) TestSubmissionDecoupledFromBatchProcessing() {
	release := s.state.Gate(0)
	defer release()
	s.engine.stickyInput = false
	s.outputOnMessage(withMe, 0)
	s.run(driver.WithNominalPeriod(20 * time.Millisecond))

	s.transport.deliver(1, "agree")
	s.requireStarted(0)

	req := unittest.ClientRequestFixture(1)
	s.Require().NoError(s.requireResult(s.submit(req)))

	s.Require().Eventually(func() bool {
		proposals := s.engine.Proposals()
		if len(proposals) == 0 {
			return false
		}
		last := proposals[len(proposals)-1]
		return len(last) == 1 && last[0].ClientRequest == req
	}, time.Second, 5*time.Millisecond)
	s.Assert().Empty(s.state.Applied(), "epoch 0 is still being applied")
}

// Rejections go back to the submitter and never stop the driver.
func (s *DriverSuite) TestRejectedSubmission() {
	s.run()

	err := s.requireResult(s.submit(&mint.ClientRequest{}))
	s.Require().Error(err)
	reason, ok := mint.RejectReasonOf(err)
	s.Require().True(ok)
	s.Assert().Equal(mint.RejectEmpty, reason)

	s.Assert().NoError(s.requireResult(s.submit(unittest.ClientRequestFixture(1))))
	s.requireNoFatal()
}

// A full intake queue blocks the submitter until the driver pops an item.
func (s *DriverSuite) TestIntakeBackpressure() {
	s.create()

	subs := make([]*mint.Submission, 0, 5)
	for i := 0; i < 4; i++ {
		sub := mint.NewSubmission(unittest.ClientRequestFixture(1))
		s.intake <- sub
		subs = append(subs, sub)
	}

	fifth := mint.NewSubmission(unittest.ClientRequestFixture(1))
	subs = append(subs, fifth)
	enqueued := make(chan struct{})
	go func() {
		s.intake <- fifth
		close(enqueued)
	}()
	unittest.RequireNeverClosedWithin(s.T(), enqueued, 100*time.Millisecond, "fifth submission must wait for a free slot")

	s.start()
	unittest.RequireCloseBefore(s.T(), enqueued, time.Second, "fifth submission was not enqueued")
	for _, sub := range subs {
		s.Assert().NoError(s.requireResult(sub))
	}
}

// Messages are sent in the order produced and faults are only reported.
func (s *DriverSuite) TestMessagesSentInOrderAndFaultsReported() {
	s.engine.onMessage = func(msg mint.InboundMessage) (*mint.Step, error) {
		return &mint.Step{
			Messages: []mint.TargetedMessage{
				{Target: 1, Payload: []byte("a")},
				{Target: 2, Payload: []byte("b")},
				{Target: 1, Payload: []byte("c")},
			},
			FaultLog: []mint.Fault{{Peer: 3, Kind: mint.FaultInvalidMessage, Reason: "garbage"}},
		}, nil
	}
	s.run()

	s.transport.deliver(3, "garbage")
	s.Require().Eventually(func() bool { return len(s.transport.Sent()) == 3 }, time.Second, 5*time.Millisecond)
	s.Assert().Equal([]sentMessage{{1, "a"}, {2, "b"}, {1, "c"}}, s.transport.Sent())
	s.requireNoFatal()
}

// Responses of an applied batch are forwarded to the sink.
func (s *DriverSuite) TestResponsesDelivered() {
	responses := []*mint.SigResponse{unittest.SigResponseFixture(0)}
	s.state.responses[0] = responses
	s.outputOnMessage(withMe, 0, 1)
	s.run()

	s.transport.deliver(1, "agree")
	select {
	case delivered := <-s.sink.delivered:
		s.Assert().Equal(responses, delivered)
	case <-time.After(time.Second):
		s.Require().Fail("responses not delivered")
	}

	// batches without responses deliver nothing
	s.transport.deliver(1, "agree")
	s.Require().Eventually(func() bool { return len(s.state.Applied()) == 2 }, time.Second, 5*time.Millisecond)
	s.Assert().Empty(s.sink.delivered)
}

// An engine error on propose is fatal and nothing else is stepped afterwards.
func (s *DriverSuite) TestProposeErrorIsFatal() {
	expected := errors.New("engine corrupted")
	s.engine.onPropose = func(uint64, mint.Proposal) (*mint.Step, error) {
		return nil, expected
	}
	s.run(driver.WithNominalPeriod(5 * time.Millisecond))

	err := s.requireFatal()
	s.Assert().ErrorIs(err, expected)
	time.Sleep(50 * time.Millisecond)
	s.Assert().Len(s.engine.Proposals(), 1)
}

// An engine error on a peer message is fatal.
func (s *DriverSuite) TestHandleMessageErrorIsFatal() {
	expected := errors.New("engine corrupted")
	s.engine.onMessage = func(mint.InboundMessage) (*mint.Step, error) {
		return nil, expected
	}
	s.run()

	s.transport.deliver(1, "poison")
	s.Assert().ErrorIs(s.requireFatal(), expected)
}

// An engine error raised while a batch is being applied is only thrown once
// that batch has finished.
func (s *DriverSuite) TestFatalErrorWaitsForBatch() {
	expected := errors.New("engine corrupted")
	release := s.state.Gate(0)
	defer release()
	calls := 0
	s.engine.onMessage = func(mint.InboundMessage) (*mint.Step, error) {
		calls++
		if calls == 1 {
			return &mint.Step{Output: []*mint.Batch{unittest.BatchFixture(0, withMe(0)...)}}, nil
		}
		return nil, expected
	}
	s.run()

	s.transport.deliver(1, "first")
	s.requireStarted(0)
	s.transport.deliver(1, "poison")

	select {
	case err := <-s.errs:
		s.Require().Failf("thrown while batch in flight", "%v", err)
	case <-time.After(50 * time.Millisecond):
	}

	release()
	s.Assert().ErrorIs(s.requireFatal(), expected)
	s.Assert().Equal([]uint64{0}, s.state.Applied())
}

// A failed batch job is raised when the next batch is dispatched.
func (s *DriverSuite) TestBatchFailureIsFatal() {
	expected := errors.New("ledger write failed")
	s.state.failures[0] = expected
	s.outputOnMessage(withMe, 0, 1)
	s.run()

	s.transport.deliver(1, "first")
	s.requireStarted(0)
	s.transport.deliver(1, "second")

	s.Assert().ErrorIs(s.requireFatal(), expected)
	s.requireNotStarted(50 * time.Millisecond)
}

// A panicking batch job is raised like a failure.
func (s *DriverSuite) TestBatchPanicIsFatal() {
	s.state.panics[0] = true
	s.outputOnMessage(withMe, 0, 1)
	s.run()

	s.transport.deliver(1, "first")
	s.requireStarted(0)
	s.transport.deliver(1, "second")

	err := s.requireFatal()
	s.Assert().Contains(err.Error(), "corrupted ledger at epoch 0")
}

// A failing response sink is fatal.
func (s *DriverSuite) TestDeliverFailureIsFatal() {
	s.sink.err = errors.New("gateway gone")
	s.state.responses[0] = []*mint.SigResponse{unittest.SigResponseFixture(0)}
	s.outputOnMessage(withMe, 0, 1)
	s.run()

	s.transport.deliver(1, "first")
	s.requireStarted(0)
	s.transport.deliver(1, "second")
	s.Assert().ErrorIs(s.requireFatal(), s.sink.err)
}

// Shutdown waits for the batch in flight.
func (s *DriverSuite) TestShutdownWaitsForBatch() {
	release := s.state.Gate(0)
	s.outputOnMessage(withMe, 0)
	s.run()

	s.transport.deliver(1, "agree")
	s.requireStarted(0)

	s.cancel()
	s.cancel = nil
	unittest.RequireNeverClosedWithin(s.T(), s.driver.Done(), 100*time.Millisecond, "driver stopped with a batch in flight")
	release()
	unittest.RequireCloseBefore(s.T(), s.driver.Done(), time.Second, "driver did not stop")
	s.Assert().Equal([]uint64{0}, s.state.Applied())
}

// A closed transport is fatal.
func (s *DriverSuite) TestTransportClosedIsFatal() {
	s.run()
	close(s.transport.inbound)
	s.Assert().ErrorIs(s.requireFatal(), driver.ErrTransportClosed)
}

func TestNew_InvalidPeriods(t *testing.T) {
	engine := mocks.NewEngine(t)
	_, err := driver.New(unittest.Logger(), metrics.NewNoopCollector(), me, engine, mocks.NewState(t),
		mocks.NewTransport(t), mocks.NewResponseSink(t), make(chan *mint.Submission),
		driver.WithFastRetryPeriod(0),
	)
	assert.Error(t, err)
}

// The proposal fetched from the state is handed to the engine unchanged, and
// an engine error stops the driver before anything else happens.
func TestDriver_ProposeErrorWithMocks(t *testing.T) {
	proposal := unittest.ProposalFixture(2)
	expected := errors.New("engine corrupted")

	engine := mocks.NewEngine(t)
	engine.On("Epoch").Return(uint64(0))
	engine.On("HasPendingInput").Return(false).Once()
	engine.On("Propose", proposal).Return(nil, expected).Once()

	state := mocks.NewState(t)
	state.On("GetConsensusProposal").Return(proposal).Once()

	inbound := make(chan mint.InboundMessage)
	transport := mocks.NewTransport(t)
	transport.On("Inbound").Return((<-chan mint.InboundMessage)(inbound)).Once()

	d, err := driver.New(unittest.Logger(), metrics.NewNoopCollector(), me, engine, state, transport,
		mocks.NewResponseSink(t), make(chan *mint.Submission),
		driver.WithNominalPeriod(5*time.Millisecond),
	)
	require.NoError(t, err)

	ctx, cancel, errs := irrecoverable.WithSignalerAndCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, expected)
	case <-time.After(time.Second):
		t.Fatal("driver did not throw")
	}
	unittest.RequireCloseBefore(t, d.Done(), time.Second, "driver did not stop")
	engine.AssertNotCalled(t, "HandleMessage", mock.Anything, mock.Anything)
}
