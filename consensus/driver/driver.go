package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/fedibtc/minimint/consensus"
	"github.com/fedibtc/minimint/model/mint"
	"github.com/fedibtc/minimint/module"
	"github.com/fedibtc/minimint/module/component"
	"github.com/fedibtc/minimint/module/irrecoverable"
	"github.com/fedibtc/minimint/module/metrics"
)

// Driver runs the epoch loop of a federation member. It multiplexes the
// proposal timer, peer messages and client submissions, steps the consensus
// engine and pipelines the application of agreed batches to the mint state.
//
// Every engine error is irrecoverable. Agreed batches are applied by a single
// background job at a time, so the state sees them strictly in epoch order.
type Driver struct {
	*component.ComponentManager
	log       zerolog.Logger
	metrics   module.EpochMetrics
	me        mint.PeerID
	engine    consensus.Engine
	state     consensus.State
	transport consensus.Transport
	sink      consensus.ResponseSink
	intake    <-chan *mint.Submission
	pacer     *Pacer
	pipeline  *SingleFlight
	epoch     *atomic.Uint64
}

var _ component.Component = (*Driver)(nil)

// New creates a new epoch driver. The engine, state, transport and sink are
// owned by the driver once it is started.
func New(
	log zerolog.Logger,
	collector module.EpochMetrics,
	me mint.PeerID,
	engine consensus.Engine,
	state consensus.State,
	transport consensus.Transport,
	sink consensus.ResponseSink,
	intake <-chan *mint.Submission,
	opts ...OptionFunc,
) (*Driver, error) {

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.NominalPeriod <= 0 || cfg.FastRetryPeriod <= 0 {
		return nil, fmt.Errorf("timer periods must be positive (nominal: %s, fast retry: %s)", cfg.NominalPeriod, cfg.FastRetryPeriod)
	}

	d := &Driver{
		log:       log.With().Str("component", "epoch_driver").Uint16("me", uint16(me)).Logger(),
		metrics:   collector,
		me:        me,
		engine:    engine,
		state:     state,
		transport: transport,
		sink:      sink,
		intake:    intake,
		pacer:     NewPacer(me, cfg.NominalPeriod, cfg.FastRetryPeriod),
		pipeline:  NewSingleFlight(),
		epoch:     atomic.NewUint64(engine.Epoch()),
	}

	d.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(d.loop).
		Build()

	return d, nil
}

// Epoch returns the engine epoch as of the last processed event.
func (d *Driver) Epoch() uint64 {
	return d.epoch.Load()
}

// TimerPeriod returns the current period of the proposal timer.
func (d *Driver) TimerPeriod() time.Duration {
	return d.pacer.Period()
}

// loop is the driver's only worker. It processes one event per iteration until
// the context is cancelled or an irrecoverable error is thrown.
func (d *Driver) loop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	d.pacer.Start()
	defer d.pacer.Stop()
	d.metrics.TimerPeriod(d.pacer.Period())

	mux := newMultiplexer(d.pacer.C(), d.transport.Inbound(), d.intake)
	ready()

	for {
		ev, err := mux.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				d.shutdown(ctx)
				return
			}
			d.fail(ctx, fmt.Errorf("could not wait for next event: %w", err))
		}

		err = d.processEvent(ctx, ev)
		if err != nil {
			if ctx.Err() != nil {
				d.shutdown(ctx)
				return
			}
			d.fail(ctx, fmt.Errorf("could not process %s event: %w", ev.kind, err))
		}
	}
}

// fail waits for the in-flight batch job before throwing err, so no job is
// still writing to the ledger while the node tears down.
func (d *Driver) fail(ctx irrecoverable.SignalerContext, err error) {
	jobErr := d.pipeline.Wait()
	if jobErr != nil {
		d.log.Error().Err(jobErr).Msg("batch processing failed")
	}
	ctx.Throw(err)
}

// shutdown waits for the in-flight batch job. A job which failed for a reason
// other than the shutdown itself is still thrown.
func (d *Driver) shutdown(ctx irrecoverable.SignalerContext) {
	d.log.Info().Msg("epoch driver shutting down, waiting for batch processing")
	err := d.pipeline.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		ctx.Throw(fmt.Errorf("batch processing failed during shutdown: %w", err))
	}
}

func (d *Driver) processEvent(ctx context.Context, ev event) error {
	switch ev.kind {
	case eventTick:
		return d.onTick(ctx)
	case eventMessage:
		return d.onMessage(ctx, ev.message)
	case eventSubmission:
		return d.onSubmission(ev.submission)
	default:
		return fmt.Errorf("invalid event kind (%d)", ev.kind)
	}
}

func (d *Driver) onTick(ctx context.Context) error {
	// never propose twice into the same epoch
	if d.engine.HasPendingInput() {
		d.log.Debug().Uint64("epoch", d.engine.Epoch()).Msg("proposal pending, skipping tick")
		return nil
	}

	proposal := d.state.GetConsensusProposal()
	d.metrics.ProposalSubmitted(len(proposal))
	d.log.Debug().
		Uint64("epoch", d.engine.Epoch()).
		Int("items", len(proposal)).
		Msg("proposing")

	step, err := d.engine.Propose(proposal)
	if err != nil {
		return fmt.Errorf("could not propose: %w", err)
	}
	return d.processStep(ctx, step)
}

func (d *Driver) onMessage(ctx context.Context, msg mint.InboundMessage) error {
	step, err := d.engine.HandleMessage(msg.Sender, msg.Payload)
	if err != nil {
		return fmt.Errorf("could not handle message from peer %d: %w", msg.Sender, err)
	}
	return d.processStep(ctx, step)
}

// onSubmission hands a client request to the state without touching the engine.
// Rejections are reported to the submitter, anything else is irrecoverable.
func (d *Driver) onSubmission(sub *mint.Submission) error {
	err := d.state.SubmitClientRequest(sub.Request)
	if err != nil {
		reason, ok := mint.RejectReasonOf(err)
		if !ok {
			sub.Reject(err)
			return fmt.Errorf("could not submit client request: %w", err)
		}
		d.metrics.SubmissionHandled(string(reason))
		d.log.Debug().Err(err).Msg("client request rejected")
		sub.Reject(err)
		return nil
	}

	d.metrics.SubmissionHandled(metrics.OutcomeAccepted)
	sub.Accept()
	return nil
}

func (d *Driver) processStep(ctx context.Context, step *mint.Step) error {
	if step == nil {
		return nil
	}

	// messages go out in the order the engine produced them
	for _, msg := range step.Messages {
		err := d.transport.Send(ctx, msg.Target, msg.Payload)
		if err != nil {
			return fmt.Errorf("could not send message to peer %d: %w", msg.Target, err)
		}
	}

	epoch := d.engine.Epoch()
	d.epoch.Store(epoch)
	d.metrics.EpochAdvanced(epoch)

	if d.pacer.Adjust(step) {
		d.metrics.TimerPeriod(d.pacer.Period())
	}

	if len(step.Output) > 0 {
		d.metrics.BatchesAgreed(len(step.Output))
		for _, batch := range step.Output {
			d.log.Info().
				Uint64("epoch", batch.Epoch).
				Int("contributors", len(batch.Contributions)).
				Int("items", batch.Size()).
				Bool("contains_own", batch.Contains(d.me)).
				Msg("batch agreed")
		}

		err := d.pipeline.Replace(d.batchJob(ctx, step.Output))
		if err != nil {
			return fmt.Errorf("previous batch processing failed: %w", err)
		}
	}

	if len(step.FaultLog) > 0 {
		d.metrics.FaultsReported(len(step.FaultLog))
		for _, fault := range step.FaultLog {
			d.log.Warn().
				Uint16("peer", uint16(fault.Peer)).
				Str("fault", string(fault.Kind)).
				Str("reason", fault.Reason).
				Msg("peer fault observed")
		}
	}

	return nil
}

// batchJob applies the batches in order and forwards completed responses.
func (d *Driver) batchJob(ctx context.Context, batches []*mint.Batch) Job {
	return func() error {
		start := time.Now()
		for _, batch := range batches {
			responses, err := d.state.ProcessConsensusOutcome(ctx, batch)
			if err != nil {
				return fmt.Errorf("could not process batch of epoch %d: %w", batch.Epoch, err)
			}
			if len(responses) == 0 {
				continue
			}
			err = d.sink.Deliver(ctx, responses)
			if err != nil {
				return fmt.Errorf("could not deliver %d responses of epoch %d: %w", len(responses), batch.Epoch, err)
			}
		}
		d.metrics.BatchProcessed(time.Since(start))
		return nil
	}
}
