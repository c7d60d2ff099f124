// Package consumer implements the consumer side of a channel (spec §4): a
// lazy, cached proxy tree over a remote root value, backed by request/
// response correlation across a multiplexed endpoint.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/remobj/remobj-go/internal/endpoint"
	"github.com/remobj/remobj-go/internal/metrics"
	"github.com/remobj/remobj-go/internal/mux"
	"github.com/remobj/remobj-go/internal/plug"
	"github.com/remobj/remobj-go/internal/realm"
	"github.com/remobj/remobj-go/internal/trace"
	"github.com/remobj/remobj-go/internal/wire"
)

// DefaultTimeout is the default request/response correlation timeout
// (spec §4.5: providers are expected to answer within a bounded window).
const DefaultTimeout = 300 * time.Second

// pathCacheKey hashes a canonical property path into the proxy cache key,
// the same xxhash-of-path-string shape the teacher uses for policy decision
// caching.
func pathCacheKey(path []string) uint64 {
	return xxhash.Sum64String(wire.JoinPath(path))
}

// Options configures an Engine.
type Options struct {
	// Timeout bounds how long a pending request waits for its response.
	// Zero means DefaultTimeout.
	Timeout time.Duration
	// NewSubProvider spins up a sub-provider for a non-clonable outbound
	// argument (e.g. a local callback function passed to a remote call).
	// Required whenever the caller may pass non-clonable arguments.
	NewSubProvider plug.NewSubProvider
	Logger         *slog.Logger
	// Tap, if non-nil, receives one observational span per request this
	// engine sends (spec §4.6).
	Tap *trace.Tap
	// Metrics, if non-nil, is incremented for every in-flight request and
	// timeout.
	Metrics *metrics.Metrics
}

// requestOutcome carries either a settled response or the reason one never
// arrived (timeout or disposal) to the goroutine blocked in Engine.request.
type requestOutcome struct {
	resp wire.RemoteCallResponse
	err  error
}

type pendingRequest struct {
	resultCh chan requestOutcome
	timer    *time.Timer
}

// Engine owns one channel's worth of pending requests and the cached proxy
// tree built over it.
type Engine struct {
	ch         endpoint.Endpoint
	consumerID string
	timeout    time.Duration
	newSub     plug.NewSubProvider
	tap        *trace.Tap
	metrics    *metrics.Metrics
	logger     *slog.Logger
	unsub      endpoint.Unsubscribe

	mu       sync.Mutex
	closed   bool
	pending  map[string]*pendingRequest
	proxies  map[uint64]*Proxy
	children []*Engine
}

// Consume binds a new Engine to ch and returns the root Proxy of the remote
// object tree. The returned proxy (and every proxy derived from it) becomes
// unusable once Dispose is called.
func Consume(ch endpoint.Endpoint, opts Options) *Proxy {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	e := &Engine{
		ch:         ch,
		consumerID: mux.NewChannelID(),
		timeout:    opts.Timeout,
		newSub:     opts.NewSubProvider,
		tap:        opts.Tap,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		pending:    make(map[string]*pendingRequest),
		proxies:    make(map[uint64]*Proxy),
	}
	e.unsub = ch.Subscribe(e.onMessage)

	root := &Proxy{engine: e, path: nil}
	e.proxies[pathCacheKey(nil)] = root
	runtime.AddCleanup(root, func(eng *Engine) { eng.disposeBestEffort() }, e)
	return root
}

// Dispose tears down the engine: every pending request is rejected with
// ErrDisposed, the listener subscription is removed, and the proxy cache is
// cleared. Idempotent.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	pending := e.pending
	children := e.children
	e.pending = nil
	e.proxies = nil
	e.children = nil
	e.mu.Unlock()

	for _, pr := range pending {
		pr.timer.Stop()
		pr.resultCh <- requestOutcome{err: ErrDisposed}
		close(pr.resultCh)
	}
	for _, c := range children {
		_ = c.Dispose()
	}
	if e.unsub != nil {
		e.unsub()
	}
	return e.ch.Close()
}

// newSubConsumer materialises a child Proxy bound to a freshly opened
// sibling channel of this engine's multiplexer, for unwrapping a channel
// ref found in a response (spec §4.4). It never imports the provider
// package: the remote side that produced the ref is whatever spun up a
// provider for it.
func (e *Engine) newSubConsumer(channelID string) (interface{}, error) {
	mplexer, ok := e.ch.(interface{ Multiplexer() *mux.Multiplexer })
	if !ok {
		return nil, fmt.Errorf("consumer: endpoint does not support sub-channeling")
	}
	m := mplexer.Multiplexer()
	childCh := m.OpenChannel(channelID)
	child := Consume(childCh, Options{Timeout: e.timeout, NewSubProvider: e.newSub, Logger: e.logger, Tap: e.tap, Metrics: e.metrics})

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		_ = child.engine.Dispose()
		return nil, ErrDisposed
	}
	e.children = append(e.children, child.engine)
	e.mu.Unlock()

	return child, nil
}

func (e *Engine) disposeBestEffort() {
	_ = e.Dispose()
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Engine) onMessage(ev endpoint.Event) {
	var resp wire.RemoteCallResponse
	if err := wire.Redecode(ev.Data, &resp); err != nil {
		e.logger.Debug("consumer: dropping unparsable message", "error", err)
		return
	}
	if resp.Type != wire.ResponseTypeTag || resp.RequestID == "" {
		return
	}

	e.mu.Lock()
	pr, ok := e.pending[resp.RequestID]
	if ok {
		delete(e.pending, resp.RequestID)
	}
	e.mu.Unlock()
	if !ok {
		// No one is waiting for this response (already timed out, or an
		// echo from a bus that replays our own traffic).
		return
	}

	pr.timer.Stop()
	pr.resultCh <- requestOutcome{resp: resp}
}

// request sends one RemoteCallRequest for path/op/args and blocks until its
// response arrives, ctx is cancelled, or the request times out.
func (e *Engine) request(ctx context.Context, op wire.OperationType, path []string, args []json.RawMessage) (wire.RemoteCallResponse, error) {
	if e.isClosed() {
		return wire.RemoteCallResponse{}, ErrDisposed
	}

	requestID := uuid.New().String()
	resultCh := make(chan requestOutcome, 1)
	timer := time.AfterFunc(e.timeout, func() { e.timeoutRequest(requestID) })

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		timer.Stop()
		return wire.RemoteCallResponse{}, ErrDisposed
	}
	e.pending[requestID] = &pendingRequest{resultCh: resultCh, timer: timer}
	e.mu.Unlock()
	if e.metrics != nil {
		e.metrics.PendingRequests.Inc()
	}

	req := wire.RemoteCallRequest{
		RequestID:     requestID,
		ConsumerID:    e.consumerID,
		RealmID:       realm.ID(),
		OperationType: op,
		PropertyPath:  wire.JoinPath(path),
		Args:          args,
	}
	e.tap.Message(ctx, trace.SideConsumer, e.consumerID, req.RealmID, string(op), req.PropertyPath)
	if err := e.ch.Post(req); err != nil {
		e.mu.Lock()
		delete(e.pending, requestID)
		e.mu.Unlock()
		timer.Stop()
		e.decPending()
		return wire.RemoteCallResponse{}, fmt.Errorf("consumer: posting request: %w", err)
	}

	select {
	case outcome := <-resultCh:
		e.decPending()
		if outcome.err != nil {
			if outcome.err == ErrTimeout && e.metrics != nil {
				e.metrics.TimeoutsTotal.Inc()
			}
			return wire.RemoteCallResponse{}, outcome.err
		}
		return outcome.resp, nil
	case <-ctx.Done():
		e.mu.Lock()
		delete(e.pending, requestID)
		e.mu.Unlock()
		timer.Stop()
		e.decPending()
		return wire.RemoteCallResponse{}, ctx.Err()
	}
}

func (e *Engine) decPending() {
	if e.metrics != nil {
		e.metrics.PendingRequests.Dec()
	}
}

func (e *Engine) timeoutRequest(requestID string) {
	e.mu.Lock()
	pr, ok := e.pending[requestID]
	if ok {
		delete(e.pending, requestID)
	}
	e.mu.Unlock()
	if ok {
		pr.resultCh <- requestOutcome{err: ErrTimeout}
		close(pr.resultCh)
	}
}

// newSubProviderOrFail adapts the configured plug.NewSubProvider, failing
// closed if this Engine was not given one.
func (e *Engine) newSubProviderOrFail() plug.NewSubProvider {
	if e.newSub != nil {
		return e.newSub
	}
	return func(value interface{}) (string, error) {
		return "", fmt.Errorf("consumer: no sub-provider factory configured, cannot wrap non-clonable argument %T", value)
	}
}
