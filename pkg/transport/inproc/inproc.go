// Package inproc provides an in-process pair of linked Endpoints — the
// simplest possible transport, used to wire a provider and a consumer
// together inside a single process (tests, embedding a provider/consumer
// pair in one binary).
package inproc

import (
	"sync"

	"github.com/remobj/remobj-go/internal/endpoint"
)

// Pair returns two Endpoints, a and b, such that a.Post delivers to every
// listener subscribed on b and vice versa. Posting after either side has
// closed returns endpoint.ErrClosed.
func Pair() (endpoint.Endpoint, endpoint.Endpoint) {
	a := &pipeEnd{}
	b := &pipeEnd{}
	a.peer = b
	b.peer = a
	return a, b
}

type listenerEntry struct {
	id       uint64
	listener endpoint.Listener
}

type pipeEnd struct {
	peer *pipeEnd

	mu      sync.Mutex
	closed  bool
	nextID  uint64
	entries []listenerEntry
}

// Post delivers message to every listener currently registered on the peer
// endpoint, synchronously, on the calling goroutine.
func (p *pipeEnd) Post(message interface{}) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return endpoint.ErrClosed
	}

	p.peer.mu.Lock()
	entries := append([]listenerEntry(nil), p.peer.entries...)
	peerClosed := p.peer.closed
	p.peer.mu.Unlock()
	if peerClosed {
		return endpoint.ErrClosed
	}

	for _, e := range entries {
		e.listener(endpoint.Event{Data: message})
	}
	return nil
}

// Subscribe registers listener for messages posted by the peer endpoint.
func (p *pipeEnd) Subscribe(listener endpoint.Listener) endpoint.Unsubscribe {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.entries = append(p.entries, listenerEntry{id: id, listener: listener})

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, e := range p.entries {
			if e.id == id {
				p.entries = append(p.entries[:i:i], p.entries[i+1:]...)
				return
			}
		}
	}
}

// Close marks this end closed; it does not close the peer. Idempotent.
func (p *pipeEnd) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.entries = nil
	return nil
}

var _ endpoint.Endpoint = (*pipeEnd)(nil)
