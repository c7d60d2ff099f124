// Package remobj is the public entry point: it exposes a Go value over an
// Endpoint as a provider, and consumes a remote Endpoint as a lazy proxy
// tree, wiring the two internal packages together so that non-clonable
// arguments and results can cross the boundary as sub-channeled proxies in
// either direction (spec §4.4).
package remobj

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/remobj/remobj-go/internal/consumer"
	"github.com/remobj/remobj-go/internal/endpoint"
	"github.com/remobj/remobj-go/internal/metrics"
	"github.com/remobj/remobj-go/internal/mux"
	"github.com/remobj/remobj-go/internal/plug"
	"github.com/remobj/remobj-go/internal/policy"
	"github.com/remobj/remobj-go/internal/provider"
	"github.com/remobj/remobj-go/internal/trace"
)

// Re-exported so callers building an exposed tree never need to import the
// internal provider package directly.
type (
	// Func is the callable leaf shape a remotely invokable property must
	// have to answer `call`/`construct`.
	Func = provider.Func
	// Awaitable is implemented by a property value whose `await` must
	// resolve asynchronously rather than settle immediately.
	Awaitable = provider.Awaitable
	// Proxy is one node of the consumer-side lazily materialised proxy
	// tree over a remote object graph.
	Proxy = consumer.Proxy
	// Policy compiles and evaluates an optional CEL security expression.
	Policy = policy.Evaluator
	// Metrics holds the Prometheus instrumentation for a provider/consumer
	// pair; share one across calls to get a unified view.
	Metrics = metrics.Metrics
)

// NewPolicy compiles expression into a Policy usable as a ProvideOption via
// WithPolicy.
func NewPolicy(expression string) (*Policy, error) {
	return policy.New(expression)
}

// NewMetrics creates and registers this module's metrics against reg, for
// use with WithProviderMetrics/WithConsumerMetrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return metrics.New(reg)
}

// Endpoint is the bidirectional message-passing surface a transport adapter
// must implement to back either Provide or Consume.
type Endpoint = endpoint.Endpoint

// shared bundles the cross-cutting collaborators every provider/consumer in
// a channel's sub-channel tree needs, so recursive sub-channeling factories
// don't grow a parameter per concern.
type shared struct {
	logger  *slog.Logger
	tap     *trace.Tap
	metrics *Metrics
}

// provideConfig and consumeConfig collect functional-option state; see
// options.go for the With* constructors.
type provideConfig struct {
	allowWrite bool
	devMode    bool
	policy     *policy.Evaluator
	shared
}

type consumeConfig struct {
	timeout time.Duration
	shared
}

// WithProviderTrace enables the OpenTelemetry devtools tap (spec §4.6) on a
// Provide call.
func WithProviderTrace() ProvideOption {
	return func(c *provideConfig) { c.tap = trace.NewTap() }
}

// WithConsumerTrace enables the OpenTelemetry devtools tap (spec §4.6) on a
// Consume call.
func WithConsumerTrace() ConsumeOption {
	return func(c *consumeConfig) { c.tap = trace.NewTap() }
}

// WithProviderMetrics attaches m to a Provide call.
func WithProviderMetrics(m *Metrics) ProvideOption {
	return func(c *provideConfig) { c.metrics = m }
}

// WithConsumerMetrics attaches m to a Consume call.
func WithConsumerMetrics(m *Metrics) ConsumeOption {
	return func(c *consumeConfig) { c.metrics = m }
}

// Provider is the handle returned by Provide; Close stops answering
// requests and tears down every sub-provider spun up for non-clonable
// results.
type Provider struct {
	p *provider.Provider
}

// Close stops this provider and every sub-provider it spun up.
func (pr *Provider) Close() error {
	return pr.p.Close()
}

// Provide exposes root on ep and begins answering requests immediately. The
// returned Provider must be closed once the channel is no longer needed.
func Provide(root interface{}, ep Endpoint, opts ...ProvideOption) *Provider {
	cfg := provideConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	m := mux.New(ep, cfg.logger)
	rootCh := m.OpenChannel(mux.RootChannelID)

	p := provider.Provide(root, rootCh, provider.Options{
		AllowWrite:     cfg.allowWrite,
		DevMode:        cfg.devMode,
		Policy:         cfg.policy,
		Logger:         cfg.logger,
		Tap:            cfg.tap,
		Metrics:        cfg.metrics,
		NewSubConsumer: newSubConsumerFactory(m, cfg.shared),
	})
	return &Provider{p: p}
}

// Consume binds to ep as a consumer and returns the root Proxy of the
// remote object tree exposed by the peer's Provide call. The returned proxy
// (and every proxy derived from it) must eventually be disposed.
func Consume(ep Endpoint, opts ...ConsumeOption) *Proxy {
	cfg := consumeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	m := mux.New(ep, cfg.logger)
	rootCh := m.OpenChannel(mux.RootChannelID)

	return consumer.Consume(rootCh, consumer.Options{
		Timeout:        cfg.timeout,
		Logger:         cfg.logger,
		Tap:            cfg.tap,
		Metrics:        cfg.metrics,
		NewSubProvider: newSubProviderFactory(m, cfg.shared),
	})
}

// newSubConsumerFactory closes over m to give the provider package a way to
// materialise a consumer proxy for a channel ref it received, without the
// provider package importing consumer directly.
func newSubConsumerFactory(m *mux.Multiplexer, s shared) plug.NewSubConsumer {
	return func(channelID string) (interface{}, error) {
		ch := m.OpenChannel(channelID)
		return consumer.Consume(ch, consumer.Options{
			Logger:         s.logger,
			Tap:            s.tap,
			Metrics:        s.metrics,
			NewSubProvider: newSubProviderFactory(m, s),
		}), nil
	}
}

// newSubProviderFactory closes over m to give the consumer package a way to
// spin up a provider for a non-clonable outbound value, without the
// consumer package importing provider directly.
func newSubProviderFactory(m *mux.Multiplexer, s shared) plug.NewSubProvider {
	return func(value interface{}) (string, error) {
		channelID := mux.NewChannelID()
		ch := m.OpenChannel(channelID)
		provider.Provide(value, ch, provider.Options{
			Logger:         s.logger,
			Tap:            s.tap,
			Metrics:        s.metrics,
			NewSubConsumer: newSubConsumerFactory(m, s),
		})
		return channelID, nil
	}
}
