// Package plug implements the argument-wrapping plug (spec §4.4): for every
// outgoing request or response, clonable values pass through untouched and
// non-clonable values are replaced with a reference to a freshly spun up
// sub-provider; for every incoming request or response, such references are
// turned back into sub-consumer proxies.
//
// To avoid an import cycle (the provider needs a consumer to represent an
// unwrapped sub-channel argument, and the consumer needs a provider to back
// a wrapped outbound argument), this package never imports the consumer or
// provider packages directly. Callers inject the two factories it needs.
package plug

import (
	"encoding/json"
	"fmt"

	"github.com/remobj/remobj-go/internal/wire"
)

// NewSubProvider spins up a sub-provider for value on a fresh channel and
// returns that channel's id. The consumer side receives one from pkg/remobj,
// which has the Multiplexer and calls provider.Provide.
type NewSubProvider func(value interface{}) (channelID string, err error)

// NewSubConsumer materialises a sub-consumer proxy bound to channelID.
// The provider side receives one from pkg/remobj, which has the Multiplexer
// and calls consumer.Consume. The returned value is whatever Go representation
// the consumer package uses for a proxy (e.g. a *consumer.Proxy) — plug
// treats it opaquely.
type NewSubConsumer func(channelID string) (interface{}, error)

// Wrap converts a single outbound value into its wire form: the raw JSON of
// the value itself if it is clonable, or a ChannelRef if it had to be
// sub-channeled.
func Wrap(value interface{}, newSubProvider NewSubProvider) (json.RawMessage, error) {
	if wire.IsClonable(value) {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("plug: marshaling clonable value: %w", err)
		}
		return raw, nil
	}

	channelID, err := newSubProvider(value)
	if err != nil {
		return nil, fmt.Errorf("plug: sub-channeling non-clonable value: %w", err)
	}
	raw, err := json.Marshal(wire.ChannelRef{Kind: wire.ChannelRefKind, ChannelID: channelID})
	if err != nil {
		return nil, fmt.Errorf("plug: marshaling channel ref: %w", err)
	}
	return raw, nil
}

// WrapArgs applies Wrap to each element of args in order.
func WrapArgs(args []interface{}, newSubProvider NewSubProvider) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(args))
	for i, a := range args {
		raw, err := Wrap(a, newSubProvider)
		if err != nil {
			return nil, err
		}
		out[i] = raw
	}
	return out, nil
}

// Unwrap converts a single inbound wire value back into a Go value: a live
// sub-consumer proxy if it was a ChannelRef, or the plain decoded value
// otherwise.
func Unwrap(raw json.RawMessage, newSubConsumer NewSubConsumer) (interface{}, error) {
	if ref, ok := wire.IsChannelRef(raw); ok {
		proxy, err := newSubConsumer(ref.ChannelID)
		if err != nil {
			return nil, fmt.Errorf("plug: materialising sub-consumer: %w", err)
		}
		return proxy, nil
	}

	var value interface{}
	if len(raw) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("plug: decoding value: %w", err)
	}
	return value, nil
}

// UnwrapArgs applies Unwrap to each element of raws in order.
func UnwrapArgs(raws []json.RawMessage, newSubConsumer NewSubConsumer) ([]interface{}, error) {
	out := make([]interface{}, len(raws))
	for i, raw := range raws {
		v, err := Unwrap(raw, newSubConsumer)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
