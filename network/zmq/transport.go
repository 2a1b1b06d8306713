package zmq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/fedibtc/minimint/consensus"
	"github.com/fedibtc/minimint/model/mint"
	"github.com/fedibtc/minimint/module"
	"github.com/fedibtc/minimint/module/component"
	"github.com/fedibtc/minimint/module/irrecoverable"
)

// ErrUnknownPeer is returned when sending to a peer which is not part of the federation.
var ErrUnknownPeer = errors.New("unknown peer")

const (
	dropInvalidEnvelope = "invalid_envelope"
	dropUnknownPeer     = "unknown_peer"
	dropSpoofedSender   = "spoofed_sender"
)

// Transport connects a federation member to its peers over ZeroMQ. Each node
// binds a ROUTER socket to receive and dials one DEALER socket per peer to
// send. The transport is ready once every peer has been dialed.
type Transport struct {
	*component.ComponentManager
	log     zerolog.Logger
	metrics module.TransportMetrics
	me      mint.PeerID
	listen  string
	peers   map[mint.PeerID]string
	cfg     Config
	inbound chan mint.InboundMessage

	mu      sync.RWMutex
	router  zmq4.Socket
	dealers map[mint.PeerID]zmq4.Socket
}

var _ consensus.Transport = (*Transport)(nil)
var _ component.Component = (*Transport)(nil)

// New creates the transport of the given peer. The listen address is bound
// locally, peers maps every other federation member to its address.
func New(
	log zerolog.Logger,
	collector module.TransportMetrics,
	me mint.PeerID,
	listen string,
	peers map[mint.PeerID]string,
	opts ...OptionFunc,
) (*Transport, error) {

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, ok := peers[me]; ok {
		return nil, fmt.Errorf("peer list must not contain the local peer %d", me)
	}
	if cfg.DialRetryInitial <= 0 || cfg.DialRetryMax < cfg.DialRetryInitial {
		return nil, fmt.Errorf("invalid dial retry range [%s, %s]", cfg.DialRetryInitial, cfg.DialRetryMax)
	}

	t := &Transport{
		log:     log.With().Str("component", "zmq_transport").Uint16("me", uint16(me)).Logger(),
		metrics: collector,
		me:      me,
		listen:  listen,
		peers:   peers,
		cfg:     cfg,
		inbound: make(chan mint.InboundMessage, cfg.InboundQueue),
		dealers: make(map[mint.PeerID]zmq4.Socket),
	}

	t.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(t.serve).
		Build()

	return t, nil
}

// Inbound returns the messages received from peers, in arrival order per
// peer. The channel is closed when the transport stops.
func (t *Transport) Inbound() <-chan mint.InboundMessage {
	return t.inbound
}

// Send hands a payload to the socket of the target peer.
func (t *Transport) Send(ctx context.Context, target mint.PeerID, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.RLock()
	dealer, ok := t.dealers[target]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("could not send to peer %d: %w", target, ErrUnknownPeer)
	}

	data, err := encodeEnvelope(&Envelope{From: t.me, Payload: payload})
	if err != nil {
		return err
	}
	err = dealer.Send(zmq4.NewMsg(data))
	if err != nil {
		return fmt.Errorf("could not send to peer %d: %w", target, err)
	}

	t.metrics.MessageSent(len(data))
	return nil
}

// serve binds the router, dials every peer and then receives until shutdown.
func (t *Transport) serve(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	defer close(t.inbound)
	defer t.closeSockets()

	router := zmq4.NewRouter(ctx, zmq4.WithID(identity(t.me)))
	t.mu.Lock()
	t.router = router
	t.mu.Unlock()

	err := router.Listen(t.listen)
	if err != nil {
		ctx.Throw(fmt.Errorf("could not listen on %s: %w", t.listen, err))
	}

	err = t.dialAll(ctx, ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		ctx.Throw(fmt.Errorf("could not connect to peers: %w", err))
	}

	t.log.Info().Str("address", t.listen).Int("peers", len(t.peers)).Msg("transport connected")
	ready()

	// unblock Recv on shutdown
	go func() {
		<-ctx.Done()
		_ = router.Close()
	}()

	t.receive(ctx, router)
}

func (t *Transport) receive(ctx context.Context, router zmq4.Socket) {
	for {
		msg, err := router.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.log.Warn().Err(err).Msg("could not receive frame")
			continue
		}
		if len(msg.Frames) == 0 {
			continue
		}

		// a router prefixes the frames with the dealer's identity
		data := msg.Frames[len(msg.Frames)-1]
		env, err := decodeEnvelope(data)
		if err != nil {
			t.drop(dropInvalidEnvelope, err)
			continue
		}
		if _, ok := t.peers[env.From]; !ok {
			t.drop(dropUnknownPeer, fmt.Errorf("envelope from peer %d", env.From))
			continue
		}
		if len(msg.Frames) > 1 && string(msg.Frames[0]) != string(identity(env.From)) {
			t.drop(dropSpoofedSender, fmt.Errorf("envelope from peer %d on connection %q", env.From, msg.Frames[0]))
			continue
		}

		t.metrics.MessageReceived(len(data))
		select {
		case t.inbound <- mint.InboundMessage{Sender: env.From, Payload: env.Payload}:
		case <-ctx.Done():
			return
		}
	}
}

func (t *Transport) drop(reason string, err error) {
	t.metrics.MessageDropped(reason)
	t.log.Debug().Err(err).Str("reason", reason).Msg("dropping inbound frame")
}

// dialAll connects to every peer concurrently, retrying each with exponential
// backoff until the dial timeout expires. The dealers live as long as the
// socket context.
func (t *Transport) dialAll(ctx context.Context, sockets context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.DialTimeout)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	for peer, address := range t.peers {
		peer, address := peer, address
		g.Go(func() error {
			return t.dial(gCtx, sockets, peer, address)
		})
	}
	return g.Wait()
}

func (t *Transport) dial(ctx context.Context, sockets context.Context, peer mint.PeerID, address string) error {
	backoff := retry.NewExponential(t.cfg.DialRetryInitial)
	backoff = retry.WithCappedDuration(t.cfg.DialRetryMax, backoff)
	backoff = retry.WithJitterPercent(10, backoff)

	attempts := 0
	err := retry.Do(ctx, backoff, func(context.Context) error {
		attempts++
		dealer := zmq4.NewDealer(sockets, zmq4.WithID(identity(t.me)))
		err := dealer.Dial(address)
		if err != nil {
			_ = dealer.Close()
			t.log.Debug().Err(err).
				Uint16("peer", uint16(peer)).
				Int("attempt", attempts).
				Msg("could not dial peer, retrying")
			return retry.RetryableError(err)
		}

		t.mu.Lock()
		t.dealers[peer] = dealer
		t.mu.Unlock()
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not dial peer %d at %s: %w", peer, address, err)
	}

	t.log.Debug().Uint16("peer", uint16(peer)).Str("address", address).Msg("peer dialed")
	return nil
}

func (t *Transport) closeSockets() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for peer, dealer := range t.dealers {
		err := dealer.Close()
		if err != nil {
			t.log.Debug().Err(err).Uint16("peer", uint16(peer)).Msg("could not close dealer")
		}
	}
	if t.router != nil {
		_ = t.router.Close()
	}
}
