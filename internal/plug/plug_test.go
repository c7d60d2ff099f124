package plug

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/remobj/remobj-go/internal/wire"
)

func TestWrap_ClonablePassesThrough(t *testing.T) {
	t.Parallel()

	raw, err := Wrap(map[string]interface{}{"x": 1.0}, failingNewSubProvider(t))
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["x"] != 1.0 {
		t.Errorf("x = %v, want 1", out["x"])
	}
}

func TestWrap_NonClonableSubChannels(t *testing.T) {
	t.Parallel()

	type callback func()
	var called bool
	newSubProvider := func(value interface{}) (string, error) {
		called = true
		return "chan-1", nil
	}

	raw, err := Wrap(callback(func() {}), newSubProvider)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if !called {
		t.Error("newSubProvider should be called for a non-clonable value")
	}

	ref, ok := wire.IsChannelRef(raw)
	if !ok {
		t.Fatal("expected a channel ref")
	}
	if ref.ChannelID != "chan-1" {
		t.Errorf("ChannelID = %q, want chan-1", ref.ChannelID)
	}
}

func TestUnwrap_ChannelRefMaterialisesProxy(t *testing.T) {
	t.Parallel()

	raw, _ := json.Marshal(wire.ChannelRef{Kind: wire.ChannelRefKind, ChannelID: "chan-2"})
	sentinel := struct{ proxy bool }{proxy: true}

	newSubConsumer := func(channelID string) (interface{}, error) {
		if channelID != "chan-2" {
			t.Errorf("channelID = %q, want chan-2", channelID)
		}
		return sentinel, nil
	}

	got, err := Unwrap(raw, newSubConsumer)
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	if got != sentinel {
		t.Errorf("Unwrap = %v, want %v", got, sentinel)
	}
}

func TestUnwrap_PlainValue(t *testing.T) {
	t.Parallel()

	raw, _ := json.Marshal("hello")
	got, err := Unwrap(raw, failingNewSubConsumer(t))
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	if got != "hello" {
		t.Errorf("Unwrap = %v, want hello", got)
	}
}

func TestWrapArgs_PropagatesFirstError(t *testing.T) {
	t.Parallel()

	newSubProvider := func(value interface{}) (string, error) {
		return "", errors.New("boom")
	}
	type fn func()
	_, err := WrapArgs([]interface{}{fn(func() {})}, newSubProvider)
	if err == nil {
		t.Fatal("expected an error")
	}
}

func failingNewSubProvider(t *testing.T) NewSubProvider {
	t.Helper()
	return func(value interface{}) (string, error) {
		t.Fatalf("newSubProvider should not be called for a clonable value, got %#v", value)
		return "", nil
	}
}

func failingNewSubConsumer(t *testing.T) NewSubConsumer {
	t.Helper()
	return func(channelID string) (interface{}, error) {
		t.Fatalf("newSubConsumer should not be called for a plain value, channelID=%q", channelID)
		return nil, nil
	}
}
