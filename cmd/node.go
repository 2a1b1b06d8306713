package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/fedibtc/minimint/config"
	"github.com/fedibtc/minimint/consensus/coldstuff"
	"github.com/fedibtc/minimint/consensus/driver"
	"github.com/fedibtc/minimint/engine/gateway"
	"github.com/fedibtc/minimint/model/mint"
	"github.com/fedibtc/minimint/module"
	"github.com/fedibtc/minimint/module/component"
	"github.com/fedibtc/minimint/module/irrecoverable"
	"github.com/fedibtc/minimint/module/metrics"
	"github.com/fedibtc/minimint/module/signature"
	"github.com/fedibtc/minimint/module/util"
	"github.com/fedibtc/minimint/network/zmq"
	mintstate "github.com/fedibtc/minimint/state/mint"
	bstorage "github.com/fedibtc/minimint/storage/badger"
)

var _ component.Component = (*Node)(nil)

// Node is a federation member with all of its components wired together.
//
// The gateway, transport and metrics server are started first and stopped
// last, so the epoch driver can finish its in-flight batch while shutting down.
type Node struct {
	*component.ComponentManager
	log    zerolog.Logger
	cfg    *config.NodeConfig
	db     *badger.DB
	ledger *bstorage.Ledger
	state  *mintstate.State

	Transport *zmq.Transport
	Gateway   *gateway.Gateway
	Driver    *driver.Driver
	Metrics   *metrics.Server // nil if no metrics address is configured
}

// NewNode validates the configuration, opens the ledger and creates every
// component of the node. Metrics are registered with the given registry.
func NewNode(log zerolog.Logger, cfg *config.NodeConfig, registry *prometheus.Registry) (*Node, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	keys, err := cfg.PublicKeySet()
	if err != nil {
		return nil, fmt.Errorf("could not decode public keys: %w", err)
	}
	share, err := cfg.SecretKeyShare()
	if err != nil {
		return nil, fmt.Errorf("could not decode secret key share: %w", err)
	}

	me := cfg.Self()
	log = log.With().Uint16("peer", uint16(me)).Logger()

	dir := filepath.Join(cfg.DataDir, "ledger")
	err = os.MkdirAll(dir, 0700)
	if err != nil {
		return nil, fmt.Errorf("could not create ledger directory: %w", err)
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("could not open ledger: %w", err)
	}

	n := &Node{
		log:    log.With().Str("component", "node").Logger(),
		cfg:    cfg,
		db:     db,
		ledger: bstorage.NewLedger(db, cfg.LedgerCacheSize),
	}

	err = n.build(log, keys, share, registry)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	n.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(n.serve).
		Build()

	return n, nil
}

func (n *Node) build(log zerolog.Logger, keys *signature.PublicKeySet, share *signature.SecretKeyShare, registry *prometheus.Registry) error {
	cfg := n.cfg
	me := cfg.Self()

	next, err := n.ledger.NextEpoch()
	if err != nil {
		return fmt.Errorf("could not read next epoch: %w", err)
	}
	n.log.Info().Uint64("next_epoch", next).Msg("ledger opened")

	engine, err := coldstuff.New(log, me, cfg.PeerIDs(),
		coldstuff.WithInitialEpoch(next),
		coldstuff.WithMaxFutureEpochs(cfg.Engine.MaxFutureEpochs),
	)
	if err != nil {
		return fmt.Errorf("could not create consensus engine: %w", err)
	}

	n.state, err = mintstate.New(log, me, n.ledger, keys, share,
		mintstate.WithMaxPendingItems(cfg.Mint.MaxPendingItems),
		mintstate.WithMaxProposalItems(cfg.Mint.MaxProposalItems),
		mintstate.WithMaxRequestMessages(cfg.Mint.MaxRequestMessages),
		mintstate.WithSeenCacheSize(cfg.Mint.SeenCacheSize),
		mintstate.WithSigningWorkers(cfg.Mint.SigningWorkers),
	)
	if err != nil {
		return fmt.Errorf("could not create mint state: %w", err)
	}

	n.Transport, err = zmq.New(log, metrics.NewTransportCollector(registry), me, cfg.ListenAddress(), cfg.RemotePeers(),
		zmq.WithInboundQueue(cfg.Transport.InboundQueue),
		zmq.WithDialTimeout(cfg.Transport.DialTimeout),
	)
	if err != nil {
		n.state.Stop()
		return fmt.Errorf("could not create transport: %w", err)
	}

	intake := make(chan *mint.Submission, cfg.Driver.IntakeQueue)

	n.Gateway, err = gateway.New(log, metrics.NewGatewayCollector(registry), me, intake, n.ledger,
		gateway.WithListenAddress(cfg.Gateway.Address),
		gateway.WithResponseQueue(cfg.Gateway.ResponseQueue),
		gateway.WithResponseCacheSize(cfg.Gateway.ResponseCacheSize),
		gateway.WithSubmitTimeout(cfg.Gateway.SubmitTimeout),
	)
	if err != nil {
		n.state.Stop()
		return fmt.Errorf("could not create gateway: %w", err)
	}

	n.Driver, err = driver.New(log, metrics.NewEpochCollector(registry), me, engine, n.state, n.Transport, n.Gateway, intake,
		driver.WithNominalPeriod(cfg.Driver.NominalPeriod),
		driver.WithFastRetryPeriod(cfg.Driver.FastRetryPeriod),
	)
	if err != nil {
		n.state.Stop()
		return fmt.Errorf("could not create epoch driver: %w", err)
	}

	if cfg.MetricsAddress != "" {
		n.Metrics = metrics.NewServer(log, cfg.MetricsAddress, registry)
	}

	return nil
}

// support returns the components which outlive the driver.
func (n *Node) support() []component.Component {
	components := []component.Component{n.Transport, n.Gateway}
	if n.Metrics != nil {
		components = append(components, n.Metrics)
	}
	return components
}

// serve starts the supporting components, then the driver, and stops them in
// reverse order once the context is cancelled.
func (n *Node) serve(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	defer n.close()

	supportCtx, cancelSupport := context.WithCancel(context.Background())
	defer cancelSupport()
	signaler, supportErrs := irrecoverable.WithSignaler(supportCtx)
	go func() {
		select {
		case err := <-supportErrs:
			if err != nil {
				ctx.Throw(err)
			}
		case <-supportCtx.Done():
		}
	}()

	support := n.support()
	aware := make([]module.ReadyDoneAware, 0, len(support))
	for _, c := range support {
		c.Start(signaler)
		aware = append(aware, c)
	}
	stopSupport := func() {
		cancelSupport()
		<-util.AllDone(aware...)
	}

	err := util.WaitReady(ctx, util.AllReady(aware...))
	if err != nil {
		stopSupport()
		return
	}

	n.Driver.Start(ctx)
	select {
	case <-n.Driver.Ready():
	case <-ctx.Done():
	}
	ready()
	n.log.Info().
		Str("gateway", n.Gateway.Address()).
		Int("peers", len(n.cfg.Peers)).
		Msg("node startup complete")

	<-ctx.Done()
	n.log.Info().Msg("node shutting down")
	<-n.Driver.Done()
	stopSupport()
}

func (n *Node) close() {
	n.state.Stop()
	err := n.db.Close()
	if err != nil {
		n.log.Error().Err(err).Msg("could not close ledger")
	}
	n.log.Info().Msg("node shutdown complete")
}

// Run starts the node and blocks until the context is cancelled or a
// component fails. A second cancellation is not needed: Run waits for a
// graceful shutdown.
func (n *Node) Run(ctx context.Context) error {
	nodeCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signalerCtx, errChan := irrecoverable.WithSignaler(nodeCtx)
	n.Start(signalerCtx)

	select {
	case err := <-errChan:
		<-n.Done()
		return fmt.Errorf("unhandled irrecoverable error: %w", err)
	case <-ctx.Done():
	}

	cancel()
	err := util.WaitError(errChan, n.Done())
	if err != nil {
		<-n.Done()
		return fmt.Errorf("unhandled irrecoverable error during shutdown: %w", err)
	}
	return nil
}
