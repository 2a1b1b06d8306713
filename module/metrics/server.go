package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fedibtc/minimint/module/component"
	"github.com/fedibtc/minimint/module/irrecoverable"
)

// Server is the http server that will be serving the /metrics request for prometheus
type Server struct {
	*component.ComponentManager
	server  *http.Server
	log     zerolog.Logger
	address string

	mu    sync.RWMutex
	bound string
}

var _ component.Component = (*Server)(nil)

// NewServer creates a new server that will start on the specified address,
// and responds to only the `/metrics` endpoint
func NewServer(log zerolog.Logger, address string, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	endpoint := "/metrics"
	mux.Handle(endpoint, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	m := &Server{
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log:     log.With().Str("component", "metrics_server").Logger(),
		address: address,
	}

	m.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(m.serve).
		Build()

	return m
}

// Address returns the bound address once the server is ready.
func (m *Server) Address() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bound
}

func (m *Server) serve(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	listener, err := net.Listen("tcp", m.address)
	if err != nil {
		ctx.Throw(fmt.Errorf("could not listen on %s: %w", m.address, err))
	}

	m.mu.Lock()
	m.bound = listener.Addr().String()
	m.mu.Unlock()

	m.log.Info().Str("address", m.Address()).Msg("metrics server started")
	ready()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.server.Shutdown(shutdownCtx)
	}()

	err = m.server.Serve(listener)
	// http.ErrServerClosed is returned when Close or Shutdown is called
	// we don't consider this an error, so print this with debug level instead
	if errors.Is(err, http.ErrServerClosed) {
		m.log.Debug().Err(err).Msg("metrics server shutdown")
		return
	}
	ctx.Throw(fmt.Errorf("metrics server failed: %w", err))
}
