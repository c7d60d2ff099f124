package mux

import (
	"testing"

	"github.com/remobj/remobj-go/internal/endpoint"
)

// loopbackEndpoint is a minimal single-process Endpoint fake, independent of
// pkg/transport/inproc to keep this package's tests free of a pkg/ import.
type loopbackEndpoint struct {
	listeners []endpoint.Listener
}

func (l *loopbackEndpoint) Post(message interface{}) error {
	for _, ls := range l.listeners {
		ls(endpoint.Event{Data: message})
	}
	return nil
}

func (l *loopbackEndpoint) Subscribe(listener endpoint.Listener) endpoint.Unsubscribe {
	l.listeners = append(l.listeners, listener)
	return func() {}
}

func (l *loopbackEndpoint) Close() error { return nil }

func TestMultiplexer_RoutesByChannelID(t *testing.T) {
	t.Parallel()

	raw := &loopbackEndpoint{}
	m := New(raw, nil)
	defer m.Close()

	chA := m.OpenChannel("a")
	chB := m.OpenChannel("b")

	var aGot, bGot []interface{}
	chA.Subscribe(func(ev endpoint.Event) { aGot = append(aGot, ev.Data) })
	chB.Subscribe(func(ev endpoint.Event) { bGot = append(bGot, ev.Data) })

	if err := chA.Post("to-a"); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if err := chB.Post("to-b"); err != nil {
		t.Fatalf("Post: %v", err)
	}

	if len(aGot) != 1 || aGot[0] != "to-a" {
		t.Errorf("channel a received %v, want [to-a]", aGot)
	}
	if len(bGot) != 1 || bGot[0] != "to-b" {
		t.Errorf("channel b received %v, want [to-b]", bGot)
	}
}

func TestMultiplexer_UnsubscribeRemovesOnlyThatListener(t *testing.T) {
	t.Parallel()

	raw := &loopbackEndpoint{}
	m := New(raw, nil)
	defer m.Close()

	ch := m.OpenChannel("a")
	var count1, count2 int
	unsub1 := ch.Subscribe(func(endpoint.Event) { count1++ })
	ch.Subscribe(func(endpoint.Event) { count2++ })

	ch.Post("x")
	unsub1()
	ch.Post("y")

	if count1 != 1 {
		t.Errorf("count1 = %d, want 1", count1)
	}
	if count2 != 2 {
		t.Errorf("count2 = %d, want 2", count2)
	}
}

func TestMultiplexer_PostAfterCloseFails(t *testing.T) {
	t.Parallel()

	raw := &loopbackEndpoint{}
	m := New(raw, nil)
	ch := m.OpenChannel("a")

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := ch.Post("x"); err != ErrMultiplexerClosed {
		t.Errorf("Post after Close = %v, want ErrMultiplexerClosed", err)
	}
}

func TestMultiplexer_DropsEnvelopeForUnknownChannel(t *testing.T) {
	t.Parallel()

	raw := &loopbackEndpoint{}
	m := New(raw, nil)
	defer m.Close()

	ch := m.OpenChannel("known")
	var got bool
	ch.Subscribe(func(endpoint.Event) { got = true })

	if err := raw.Post(Envelope{ChannelID: "unknown", Data: "x"}); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if got {
		t.Error("listener on a different channel should not receive the envelope")
	}
}

func TestMultiplexer_MultiplexerAccessor(t *testing.T) {
	t.Parallel()

	raw := &loopbackEndpoint{}
	m := New(raw, nil)
	defer m.Close()

	ch := m.OpenChannel("a").(*virtualEndpoint)
	if ch.Multiplexer() != m {
		t.Error("Multiplexer() should return the owning Multiplexer")
	}
	if ch.ChannelID() != "a" {
		t.Errorf("ChannelID() = %q, want %q", ch.ChannelID(), "a")
	}
}
