package server

import (
	"context"
	"sync"

	"github.com/fusionflow/meetlink/internal/calendar"
	"github.com/fusionflow/meetlink/internal/google"
	"github.com/fusionflow/meetlink/internal/instrumentation"
)

// GatewayFactory builds a calendar gateway for one session's credential.
// Production uses the Google Calendar client; tests swap in a fake.
type GatewayFactory func(ctx context.Context, accessToken string) (calendar.Gateway, error)

// defaultGatewayFactory builds the real Google Calendar client.
func defaultGatewayFactory(ctx context.Context, accessToken string) (calendar.Gateway, error) {
	return calendar.NewClient(ctx, google.NewStaticTokenProvider(accessToken))
}

// ServerContext holds the shared state of the API server: the gateway
// cache keyed by session, the metrics recorder, and the shutdown flag.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	gateways map[string]calendar.Gateway // session ID -> cached gateway
	factory  GatewayFactory
	metrics  *instrumentation.Metrics
	shutdown bool
}

// NewServerContext creates a server context using the real Calendar
// gateway.
func NewServerContext(ctx context.Context) *ServerContext {
	return NewServerContextWithFactory(ctx, defaultGatewayFactory)
}

// NewServerContextWithFactory creates a server context with a custom
// gateway factory.
func NewServerContextWithFactory(ctx context.Context, factory GatewayFactory) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		gateways: make(map[string]calendar.Gateway),
		factory:  factory,
	}
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// SetMetrics attaches the metrics recorder.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, which may be nil when
// instrumentation is disabled. All recorder methods are nil-safe.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// GatewayForSession returns the calendar gateway for a session, creating
// and caching it on first use.
func (sc *ServerContext) GatewayForSession(session *Session) (calendar.Gateway, error) {
	sc.mu.RLock()
	gw, ok := sc.gateways[session.ID]
	sc.mu.RUnlock()
	if ok {
		return gw, nil
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if gw, ok := sc.gateways[session.ID]; ok {
		return gw, nil
	}

	gw, err := sc.factory(sc.ctx, session.AccessToken)
	if err != nil {
		return nil, err
	}
	sc.gateways[session.ID] = gw
	return gw, nil
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
