package endpoint

import (
	"sync"
	"testing"
)

// fakeTextChannel is a minimal loopback TextChannel for exercising
// JSONFraming without a real transport.
type fakeTextChannel struct {
	mu        sync.Mutex
	listeners []func(string)
	sent      []string
	closed    bool
}

func (f *fakeTextChannel) PostText(text string) error {
	f.mu.Lock()
	f.sent = append(f.sent, text)
	listeners := append([]func(string){}, f.listeners...)
	f.mu.Unlock()
	for _, l := range listeners {
		l(text)
	}
	return nil
}

func (f *fakeTextChannel) SubscribeText(listener func(string)) Unsubscribe {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, listener)
	return func() {}
}

func (f *fakeTextChannel) Close() error {
	f.closed = true
	return nil
}

func TestJSONFraming_PostRoundTrips(t *testing.T) {
	t.Parallel()

	text := &fakeTextChannel{}
	framing := NewJSONFraming(text, nil)

	received := make(chan Event, 1)
	framing.Subscribe(func(ev Event) { received <- ev })

	if err := framing.Post(map[string]interface{}{"hello": "world"}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	ev := <-received
	m, ok := ev.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data = %#v, want map[string]interface{}", ev.Data)
	}
	if m["hello"] != "world" {
		t.Errorf("hello = %v, want world", m["hello"])
	}
}

func TestJSONFraming_DropsUnparsableMessages(t *testing.T) {
	t.Parallel()

	text := &fakeTextChannel{}
	framing := NewJSONFraming(text, nil)

	var called bool
	framing.Subscribe(func(Event) { called = true })

	if err := text.PostText("not json{{{"); err != nil {
		t.Fatalf("PostText: %v", err)
	}
	if called {
		t.Error("listener should not be invoked for an unparsable frame")
	}
}

func TestJSONFraming_Close(t *testing.T) {
	t.Parallel()

	text := &fakeTextChannel{}
	framing := NewJSONFraming(text, nil)
	if err := framing.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !text.closed {
		t.Error("Close should close the underlying text channel")
	}
}
