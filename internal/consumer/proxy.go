package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/remobj/remobj-go/internal/plug"
	"github.com/remobj/remobj-go/internal/wire"
)

// Proxy is one node of the lazily materialised proxy tree over a remote
// object graph (spec §4.1: "consumer gets a lazy, cached proxy tree"). A
// Proxy never performs wire traffic on its own; it only describes a path.
// Property lookup happens through Get, which is cached by path so repeated
// access to the same remote property returns the same *Proxy.
type Proxy struct {
	engine *Engine
	path   []string
}

// Get returns the child proxy for segment, consulting (and populating) the
// engine-wide cache keyed by the child's full path. No wire traffic occurs.
func (p *Proxy) Get(segment string) (*Proxy, error) {
	if wire.IsForbidden(segment) {
		return nil, ErrForbiddenProperty
	}

	childPath := append(append([]string(nil), p.path...), segment)
	key := pathCacheKey(childPath)

	p.engine.mu.Lock()
	defer p.engine.mu.Unlock()
	if p.engine.closed {
		return nil, ErrDisposed
	}
	if cached, ok := p.engine.proxies[key]; ok {
		return cached, nil
	}
	child := &Proxy{engine: p.engine, path: childPath}
	p.engine.proxies[key] = child
	return child, nil
}

// Path returns the slash-joined property path this proxy addresses,
// relative to the remote root.
func (p *Proxy) Path() string {
	return wire.JoinPath(p.path)
}

// Call sends a `call` request for this proxy's path with args (spec §4.5).
func (p *Proxy) Call(ctx context.Context, args ...interface{}) (interface{}, error) {
	return p.invoke(ctx, wire.OpCall, args)
}

// Construct sends a `construct` request for this proxy's path with args.
func (p *Proxy) Construct(ctx context.Context, args ...interface{}) (interface{}, error) {
	return p.invoke(ctx, wire.OpConstruct, args)
}

// Set sends a `set` request assigning value to this proxy's path.
func (p *Proxy) Set(ctx context.Context, value interface{}) error {
	if len(p.path) == 0 {
		return &RemoteError{Kind: "root-not-settable", Message: "cannot set a property on the root value"}
	}
	raw, err := plug.Wrap(value, p.engine.newSubProviderOrFail())
	if err != nil {
		return fmt.Errorf("consumer: wrapping set value: %w", err)
	}
	resp, err := p.engine.request(ctx, wire.OpSet, p.path, []json.RawMessage{raw})
	if err != nil {
		return err
	}
	if resp.ResultType == wire.ResultError {
		return decodeRemoteError(resp.Result)
	}
	return nil
}

// Await sends an `await` request resolving this proxy's current value
// (spec §4.5: "awaiting... sends await").
func (p *Proxy) Await(ctx context.Context) (interface{}, error) {
	resp, err := p.engine.request(ctx, wire.OpAwait, p.path, nil)
	if err != nil {
		return nil, err
	}
	return p.settle(resp)
}

// Dispose tears down the engine backing this proxy (and every proxy derived
// from it): all pending requests are rejected and the underlying channel is
// closed. Safe to call on any proxy in the tree, not just the root.
func (p *Proxy) Dispose() error {
	return p.engine.Dispose()
}

func (p *Proxy) invoke(ctx context.Context, op wire.OperationType, args []interface{}) (interface{}, error) {
	raws, err := plug.WrapArgs(args, p.engine.newSubProviderOrFail())
	if err != nil {
		return nil, fmt.Errorf("consumer: wrapping arguments: %w", err)
	}
	resp, err := p.engine.request(ctx, op, p.path, raws)
	if err != nil {
		return nil, err
	}
	return p.settle(resp)
}

func (p *Proxy) settle(resp wire.RemoteCallResponse) (interface{}, error) {
	if resp.ResultType == wire.ResultError {
		return nil, decodeRemoteError(resp.Result)
	}
	return plug.Unwrap(resp.Result, p.engine.newSubConsumer)
}

func decodeRemoteError(raw json.RawMessage) error {
	var desc wire.ErrorDescriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return fmt.Errorf("consumer: decoding error response: %w", err)
	}
	return &RemoteError{Kind: desc.Kind, Message: desc.Message}
}
