// Package mux turns a single bidirectional Endpoint into an unbounded number
// of named virtual sub-channels, each with its own listener set (spec §4.2).
// It is the innermost layer every consumer, provider, and the argument
// plug address the shared raw endpoint through.
package mux

import (
	"log/slog"
	"sync"

	"github.com/remobj/remobj-go/internal/endpoint"
	"github.com/remobj/remobj-go/internal/wire"
)

// listenerEntry is one registered listener in a channel's listener set,
// identified by a monotonic id so Unsubscribe can remove exactly one entry
// without disturbing the others.
type listenerEntry struct {
	id       uint64
	listener endpoint.Listener
}

// Multiplexer demultiplexes inbound envelopes by channel id and fabricates
// virtual endpoints that tag outbound posts with that same id. It does not
// acknowledge, retry, or buffer beyond what the underlying raw endpoint
// already provides (spec §4.2 "Failure model").
type Multiplexer struct {
	raw    endpoint.Endpoint
	logger *slog.Logger

	mu        sync.Mutex
	listeners map[string][]listenerEntry
	nextID    uint64
	closed    bool
	unsubRaw  endpoint.Unsubscribe
}

// New wraps raw as a multiplexed endpoint. The caller must eventually call
// Close to release the subscription on raw.
func New(raw endpoint.Endpoint, logger *slog.Logger) *Multiplexer {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Multiplexer{
		raw:       raw,
		logger:    logger,
		listeners: make(map[string][]listenerEntry),
	}
	m.unsubRaw = raw.Subscribe(m.onRawMessage)
	return m
}

// onRawMessage demultiplexes one inbound envelope to the listener set
// registered for its channel id. An envelope for an unknown channel id is
// dropped silently — there is no recovery path for routing a message
// nobody is listening for.
func (m *Multiplexer) onRawMessage(ev endpoint.Event) {
	var env Envelope
	if err := wire.Redecode(ev.Data, &env); err != nil {
		m.logger.Debug("multiplexer: dropping malformed envelope", "error", err)
		return
	}
	if env.ChannelID == "" {
		m.logger.Debug("multiplexer: dropping envelope with empty channel id")
		return
	}

	m.mu.Lock()
	entries := append([]listenerEntry(nil), m.listeners[env.ChannelID]...)
	m.mu.Unlock()

	for _, e := range entries {
		e.listener(endpoint.Event{Data: env.Data})
	}
}

// OpenChannel returns a virtual Endpoint bound to channelID. Calling
// OpenChannel again with the same id returns routing to the same listener
// set: a listener registered after an earlier one only sees messages that
// arrive after it subscribes, never a replay of what came before.
func (m *Multiplexer) OpenChannel(channelID string) endpoint.Endpoint {
	return &virtualEndpoint{mux: m, channelID: channelID}
}

// Close closes the raw endpoint's subscription and clears every channel's
// listener set, as if the raw endpoint itself had closed (spec §4.2).
func (m *Multiplexer) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.listeners = make(map[string][]listenerEntry)
	m.mu.Unlock()

	if m.unsubRaw != nil {
		m.unsubRaw()
	}
	return nil
}

// virtualEndpoint is the Endpoint fabricated per channel id.
type virtualEndpoint struct {
	mux       *Multiplexer
	channelID string
}

// Post wraps payload in an Envelope tagged with this channel's id and
// forwards it to the raw endpoint.
func (v *virtualEndpoint) Post(payload interface{}) error {
	v.mux.mu.Lock()
	closed := v.mux.closed
	v.mux.mu.Unlock()
	if closed {
		return ErrMultiplexerClosed
	}
	return v.mux.raw.Post(Envelope{ChannelID: v.channelID, Data: payload})
}

// Subscribe registers listener in this channel's listener set.
func (v *virtualEndpoint) Subscribe(listener endpoint.Listener) endpoint.Unsubscribe {
	v.mux.mu.Lock()
	defer v.mux.mu.Unlock()

	id := v.mux.nextID
	v.mux.nextID++
	v.mux.listeners[v.channelID] = append(v.mux.listeners[v.channelID], listenerEntry{id: id, listener: listener})

	return func() {
		v.mux.mu.Lock()
		defer v.mux.mu.Unlock()
		entries := v.mux.listeners[v.channelID]
		for i, e := range entries {
			if e.id == id {
				v.mux.listeners[v.channelID] = append(entries[:i:i], entries[i+1:]...)
				break
			}
		}
		if len(v.mux.listeners[v.channelID]) == 0 {
			delete(v.mux.listeners, v.channelID)
		}
	}
}

// Close removes this channel's entire listener set. It does not close the
// shared raw endpoint — the raw endpoint is owned by the Multiplexer, not by
// any one virtual channel (spec §5 "Shared resources").
func (v *virtualEndpoint) Close() error {
	v.mux.mu.Lock()
	defer v.mux.mu.Unlock()
	delete(v.mux.listeners, v.channelID)
	return nil
}

// Multiplexer returns the Multiplexer backing this virtual channel, so a
// provider or consumer holding only an endpoint.Endpoint can still open
// sibling channels for sub-channeling (spec §4.4).
func (v *virtualEndpoint) Multiplexer() *Multiplexer {
	return v.mux
}

// ChannelID returns the virtual channel id this endpoint was opened with.
func (v *virtualEndpoint) ChannelID() string {
	return v.channelID
}

var _ endpoint.Endpoint = (*virtualEndpoint)(nil)
