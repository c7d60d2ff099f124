// Package provider implements the provider side of a channel (spec §4):
// it exposes a root Go value over a multiplexed endpoint, resolves incoming
// request paths against that value, enforces the security policy, and
// dispatches call/construct/set/await operations.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/remobj/remobj-go/internal/endpoint"
	"github.com/remobj/remobj-go/internal/metrics"
	"github.com/remobj/remobj-go/internal/mux"
	"github.com/remobj/remobj-go/internal/plug"
	"github.com/remobj/remobj-go/internal/policy"
	"github.com/remobj/remobj-go/internal/realm"
	"github.com/remobj/remobj-go/internal/trace"
	"github.com/remobj/remobj-go/internal/wire"
)

// Options configures a Provider. The zero value is a read-only provider with
// no policy and production-mode (short-code) error messages.
type Options struct {
	// AllowWrite permits `set` operations against the exposed tree. Off by
	// default (spec §3: providers default to read-only).
	AllowWrite bool
	// DevMode switches error responses from short codes to full messages
	// (spec §7).
	DevMode bool
	// Policy, if non-nil, is consulted for every operation after the static
	// forbidden-set check and before path resolution and the AllowWrite
	// check.
	Policy *policy.Evaluator
	// NewSubConsumer materialises a proxy for a channel ref found in an
	// incoming argument. Required whenever the exposed tree may receive
	// non-clonable arguments (e.g. callback functions).
	NewSubConsumer plug.NewSubConsumer
	Logger         *slog.Logger
	// Tap, if non-nil, receives one observational span per dispatched
	// message (spec §4.6). Never affects dispatch outcome.
	Tap *trace.Tap
	// Metrics, if non-nil, is incremented for every dispatched request.
	Metrics *metrics.Metrics
}

// Provider binds a root value to one multiplexed channel and answers every
// RemoteCallRequest that arrives on it.
type Provider struct {
	root       interface{}
	ch         endpoint.Endpoint
	providerID string
	opts       Options
	logger     *slog.Logger

	mu      sync.Mutex
	closed  bool
	unsub   endpoint.Unsubscribe
	// children tracks sub-providers spun up to back non-clonable results or
	// arguments returned from this provider, so Close can tear them down too.
	children []*Provider
}

// Provide exposes root on ch and begins answering requests. The returned
// Provider must be closed when the channel is no longer needed.
func Provide(root interface{}, ch endpoint.Endpoint, opts Options) *Provider {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	p := &Provider{
		root:       root,
		ch:         ch,
		providerID: mux.NewChannelID(),
		opts:       opts,
		logger:     opts.Logger,
	}
	p.unsub = ch.Subscribe(p.onMessage)
	return p
}

// Close stops answering requests on this provider's channel and closes every
// sub-provider it spun up to back a non-clonable result or argument.
func (p *Provider) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	children := p.children
	p.children = nil
	p.mu.Unlock()

	if p.unsub != nil {
		p.unsub()
	}
	for _, c := range children {
		_ = c.Close()
		if p.opts.Metrics != nil {
			p.opts.Metrics.ActiveSubChannels.Dec()
		}
	}
	return p.ch.Close()
}

func (p *Provider) onMessage(ev endpoint.Event) {
	var req wire.RemoteCallRequest
	if err := wire.Redecode(ev.Data, &req); err != nil {
		p.logger.Debug("provider: dropping unparsable message", "error", err)
		return
	}
	if req.RequestID == "" {
		p.logger.Debug("provider: dropping message with no requestID")
		return
	}
	if req.RealmID != "" && req.RealmID == realm.ID() {
		// Loopback on a bus that echoes to every subscriber (spec §3).
		return
	}

	ctx := context.Background()
	p.opts.Tap.Message(ctx, trace.SideProvider, p.providerID, req.RealmID, string(req.OperationType), req.PropertyPath)
	resp := p.dispatch(ctx, req)
	if err := p.ch.Post(resp); err != nil {
		p.logger.Warn("provider: posting response failed", "requestID", req.RequestID, "error", err)
	}
}

func (p *Provider) dispatch(ctx context.Context, req wire.RemoteCallRequest) wire.RemoteCallResponse {
	result, derr := p.handle(ctx, req)
	if derr != nil {
		p.logger.Debug("provider: dispatch failed", "path", req.PropertyPath, "kind", derr.Kind, "error", derr.Message)
		p.recordResult(string(req.OperationType), "error")
		raw, _ := json.Marshal(wire.ErrorDescriptor{Message: derr.WireMessage(p.opts.DevMode), Kind: string(derr.Kind)})
		return wire.RemoteCallResponse{
			Type:       wire.ResponseTypeTag,
			RequestID:  req.RequestID,
			ProviderID: p.providerID,
			ResultType: wire.ResultError,
			Result:     raw,
		}
	}

	p.recordResult(string(req.OperationType), "ok")
	return wire.RemoteCallResponse{
		Type:       wire.ResponseTypeTag,
		RequestID:  req.RequestID,
		ProviderID: p.providerID,
		ResultType: wire.ResultOK,
		Result:     result,
	}
}

func (p *Provider) recordResult(operation, result string) {
	if p.opts.Metrics == nil {
		return
	}
	p.opts.Metrics.RequestsTotal.WithLabelValues(operation, result).Inc()
}

func (p *Provider) handle(ctx context.Context, req wire.RemoteCallRequest) (json.RawMessage, *DispatchError) {
	if !req.OperationType.Valid() {
		return nil, newError(KindUnknownOperation, "unknown operation type %q", req.OperationType)
	}

	segments := wire.SplitPath(req.PropertyPath)
	for _, seg := range segments {
		if wire.IsForbidden(seg) {
			return nil, newError(KindForbiddenProperty, "property %q is forbidden", seg)
		}
	}

	if err := p.checkPolicy(req.OperationType, req.PropertyPath); err != nil {
		return nil, err
	}

	res, err := resolvePath(p.root, segments)
	if err != nil {
		if derr, ok := err.(*DispatchError); ok {
			return nil, derr
		}
		return nil, newError(KindResolutionFailed, "%v", err)
	}

	switch req.OperationType {
	case wire.OpSet:
		return p.handleSet(res, req)
	case wire.OpCall, wire.OpConstruct:
		return p.handleCall(ctx, res, req)
	case wire.OpAwait:
		return p.handleAwait(ctx, res)
	default:
		return nil, newError(KindUnknownOperation, "unknown operation type %q", req.OperationType)
	}
}

func (p *Provider) checkPolicy(op wire.OperationType, path string) *DispatchError {
	if p.opts.Policy == nil {
		return nil
	}
	allowed, err := p.opts.Policy.Allow(policy.EvaluationContext{
		Path:       path,
		Operation:  op,
		AllowWrite: p.opts.AllowWrite,
	})
	if err != nil {
		p.recordPolicyDecision("error")
		return newError(KindWriteDenied, "policy evaluation failed: %v", err)
	}
	if !allowed {
		p.recordPolicyDecision("deny")
		return newError(KindForbiddenProperty, "policy denied %s on %q", op, path)
	}
	p.recordPolicyDecision("allow")
	return nil
}

func (p *Provider) recordPolicyDecision(decision string) {
	if p.opts.Metrics == nil {
		return
	}
	p.opts.Metrics.PolicyDecisions.WithLabelValues(decision).Inc()
}

func (p *Provider) handleSet(res resolved, req wire.RemoteCallRequest) (json.RawMessage, *DispatchError) {
	if res.parent == nil {
		return nil, newError(KindRootNotSettable, "cannot set a property on the root value")
	}
	if !p.opts.AllowWrite {
		return nil, newError(KindWriteDenied, "provider is read-only")
	}
	if len(req.Args) != 1 {
		return nil, newError(KindInvalidMessage, "set requires exactly one argument, got %d", len(req.Args))
	}

	value, err := plug.Unwrap(req.Args[0], p.newSubConsumer())
	if err != nil {
		return nil, newError(KindInvalidMessage, "decoding set value: %v", err)
	}
	if err := setProperty(res.parent, res.lastSegment, value); err != nil {
		return nil, newError(KindReadonlyViolation, "%v", err)
	}
	return json.RawMessage("null"), nil
}

func (p *Provider) handleCall(ctx context.Context, res resolved, req wire.RemoteCallRequest) (json.RawMessage, *DispatchError) {
	fn, ok := res.value.(Func)
	if !ok {
		return nil, newError(KindNotAFunction, "property %q is not callable", req.PropertyPath)
	}

	args, err := plug.UnwrapArgs(req.Args, p.newSubConsumer())
	if err != nil {
		return nil, newError(KindInvalidMessage, "decoding arguments: %v", err)
	}

	out, callErr := fn(ctx, args)
	if callErr != nil {
		return nil, newError(KindUserThrown, "%v", callErr)
	}
	return p.wrapResult(out)
}

func (p *Provider) handleAwait(ctx context.Context, res resolved) (json.RawMessage, *DispatchError) {
	value := res.value
	if aw, ok := value.(Awaitable); ok {
		settled, err := aw.Await(ctx)
		if err != nil {
			return nil, newError(KindUserThrown, "%v", err)
		}
		value = settled
	}
	return p.wrapResult(value)
}

// wrapResult converts a dispatch's Go return value into its wire form,
// spinning up a child sub-provider when the value is not clonable.
func (p *Provider) wrapResult(value interface{}) (json.RawMessage, *DispatchError) {
	raw, err := plug.Wrap(value, p.newSubProvider())
	if err != nil {
		return nil, newError(KindResolutionFailed, "wrapping result: %v", err)
	}
	return raw, nil
}

// newSubConsumer adapts the configured plug.NewSubConsumer, failing closed
// (channel refs cannot be unwrapped) if none was configured.
func (p *Provider) newSubConsumer() plug.NewSubConsumer {
	if p.opts.NewSubConsumer != nil {
		return p.opts.NewSubConsumer
	}
	return func(channelID string) (interface{}, error) {
		return nil, fmt.Errorf("provider: no sub-consumer factory configured, cannot unwrap channel %q", channelID)
	}
}

// newSubProvider lets this provider recursively expose a non-clonable
// result or argument on a freshly opened channel of the same multiplexer
// that carries this provider's own channel, without needing to import the
// consumer package: the child is just another Provider.
func (p *Provider) newSubProvider() plug.NewSubProvider {
	return func(value interface{}) (string, error) {
		mplexer, ok := p.ch.(interface{ Multiplexer() *mux.Multiplexer })
		if !ok {
			return "", fmt.Errorf("provider: endpoint does not support sub-channeling")
		}
		m := mplexer.Multiplexer()
		channelID := mux.NewChannelID()
		childCh := m.OpenChannel(channelID)
		child := Provide(value, childCh, p.opts)
		if p.opts.Metrics != nil {
			p.opts.Metrics.ActiveSubChannels.Inc()
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			_ = child.Close()
			return "", fmt.Errorf("provider: closed")
		}
		p.children = append(p.children, child)
		p.mu.Unlock()

		return channelID, nil
	}
}
