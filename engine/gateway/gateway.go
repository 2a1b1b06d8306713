package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"github.com/fedibtc/minimint/consensus"
	"github.com/fedibtc/minimint/model/mint"
	"github.com/fedibtc/minimint/module"
	"github.com/fedibtc/minimint/module/component"
	"github.com/fedibtc/minimint/module/irrecoverable"
	"github.com/fedibtc/minimint/storage"
)

// ErrGatewayStopped is returned once the gateway has begun shutting down.
var ErrGatewayStopped = errors.New("gateway stopped")

const shutdownTimeout = 5 * time.Second

// Gateway is the client facing side of a federation member. It hands client
// requests to the epoch driver through the intake queue and serves the
// signatures the driver delivers back.
type Gateway struct {
	*component.ComponentManager
	log       zerolog.Logger
	metrics   module.GatewayMetrics
	me        mint.PeerID
	cfg       Config
	intake    chan<- *mint.Submission
	responses chan []*mint.SigResponse
	ledger    storage.Ledger
	cache     *lru.Cache // request ID -> *mint.SigResponse

	mu      sync.RWMutex
	address string
}

var _ consensus.ResponseSink = (*Gateway)(nil)
var _ component.Component = (*Gateway)(nil)

// New creates the gateway of a federation member. Submissions are pushed into
// intake, which is consumed by the epoch driver.
func New(
	log zerolog.Logger,
	collector module.GatewayMetrics,
	me mint.PeerID,
	intake chan<- *mint.Submission,
	ledger storage.Ledger,
	opts ...OptionFunc,
) (*Gateway, error) {

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.ResponseCacheSize == 0 {
		return nil, fmt.Errorf("response cache size must be positive")
	}
	cache, err := lru.New(int(cfg.ResponseCacheSize))
	if err != nil {
		return nil, fmt.Errorf("could not create response cache: %w", err)
	}

	g := &Gateway{
		log:       log.With().Str("component", "gateway").Uint16("me", uint16(me)).Logger(),
		metrics:   collector,
		me:        me,
		cfg:       cfg,
		intake:    intake,
		responses: make(chan []*mint.SigResponse, cfg.ResponseQueue),
		ledger:    ledger,
		cache:     cache,
	}

	g.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(g.serve).
		AddWorker(g.consumeResponses).
		Build()

	return g, nil
}

// Address returns the address the HTTP server is bound to. It is empty until
// the gateway is ready.
func (g *Gateway) Address() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.address
}

// Submit hands a client request to the epoch driver and waits until the
// driver either buffered or rejected it.
func (g *Gateway) Submit(ctx context.Context, req *mint.ClientRequest) (mint.Identifier, error) {
	sub := mint.NewSubmission(req)

	select {
	case g.intake <- sub:
	case <-ctx.Done():
		return mint.ZeroID, ctx.Err()
	case <-g.ShutdownSignal():
		return mint.ZeroID, ErrGatewayStopped
	}
	g.metrics.IntakeQueueLength(len(g.intake))

	err := sub.Result(ctx)
	if err != nil {
		return mint.ZeroID, err
	}
	return req.ID(), nil
}

// Deliver queues completed responses for clients. It blocks while the
// response queue is full.
func (g *Gateway) Deliver(ctx context.Context, responses []*mint.SigResponse) error {
	select {
	case <-g.ShutdownSignal():
		return ErrGatewayStopped
	default:
	}

	select {
	case g.responses <- responses:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-g.ShutdownSignal():
		return ErrGatewayStopped
	}
}

// Response returns the signatures of a request, preferring recently delivered
// responses over the ledger.
// Expected errors during normal operations:
//   - storage.ErrNotFound if the request has not been signed yet
func (g *Gateway) Response(id mint.Identifier) (*mint.SigResponse, error) {
	if cached, ok := g.cache.Get(id); ok {
		return cached.(*mint.SigResponse), nil
	}
	resp, err := g.ledger.Response(id)
	if err != nil {
		return nil, err
	}
	g.cache.Add(id, resp)
	return resp, nil
}

// consumeResponses drains the response queue into the cache.
func (g *Gateway) consumeResponses(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()
	for {
		select {
		case <-ctx.Done():
			return
		case responses := <-g.responses:
			for _, resp := range responses {
				g.cache.Add(resp.RequestID, resp)
				g.log.Debug().
					Hex("request_id", resp.RequestID[:]).
					Uint64("epoch", resp.Epoch).
					Msg("signatures available")
			}
			g.metrics.ResponsesDelivered(len(responses))
		}
	}
}

// serve runs the HTTP server until the context is cancelled.
func (g *Gateway) serve(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	listener, err := net.Listen("tcp", g.cfg.ListenAddress)
	if err != nil {
		ctx.Throw(fmt.Errorf("could not listen on %s: %w", g.cfg.ListenAddress, err))
	}

	server := newServer(g)

	g.mu.Lock()
	g.address = listener.Addr().String()
	g.mu.Unlock()

	g.log.Info().Str("address", g.Address()).Msg("gateway server started")
	ready()

	served := make(chan error, 1)
	go func() {
		served <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		if err != nil {
			g.log.Warn().Err(err).Msg("error shutting down gateway server")
		}
		<-served
	case err := <-served:
		if !errors.Is(err, http.ErrServerClosed) {
			ctx.Throw(fmt.Errorf("gateway server failed: %w", err))
		}
	}
}
