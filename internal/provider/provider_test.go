package provider

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/remobj/remobj-go/internal/endpoint"
	"github.com/remobj/remobj-go/internal/wire"
	"github.com/remobj/remobj-go/pkg/transport/inproc"
)

type demoRoot struct {
	Greeting string
	Nested   *demoRoot
	Shout    Func
}

func newDemoRoot() *demoRoot {
	r := &demoRoot{Greeting: "hello"}
	r.Shout = func(ctx context.Context, args []interface{}) (interface{}, error) {
		if len(args) == 0 {
			return nil, nil
		}
		s, _ := args[0].(string)
		return s + "!", nil
	}
	r.Nested = &demoRoot{Greeting: "nested"}
	return r
}

// roundTrip posts req on the consumer side of an inproc pair bound to a
// Provider exposing root, and waits for the matching response.
func roundTrip(t *testing.T, p *Provider, consumerCh endpoint.Endpoint, req wire.RemoteCallRequest) wire.RemoteCallResponse {
	t.Helper()

	responses := make(chan wire.RemoteCallResponse, 1)
	unsub := consumerCh.Subscribe(func(ev endpoint.Event) {
		var resp wire.RemoteCallResponse
		if err := wire.Redecode(ev.Data, &resp); err != nil {
			return
		}
		if resp.RequestID == req.RequestID {
			responses <- resp
		}
	})
	defer unsub()

	if err := consumerCh.Post(req); err != nil {
		t.Fatalf("Post: %v", err)
	}

	select {
	case resp := <-responses:
		return resp
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for response")
		return wire.RemoteCallResponse{}
	}
}

func newProviderPair(root interface{}, opts Options) (*Provider, endpoint.Endpoint) {
	providerCh, consumerCh := inproc.Pair()
	p := Provide(root, providerCh, opts)
	return p, consumerCh
}

func TestProvider_Await_ReturnsProperty(t *testing.T) {
	t.Parallel()

	p, consumerCh := newProviderPair(newDemoRoot(), Options{})
	defer p.Close()

	resp := roundTrip(t, p, consumerCh, wire.RemoteCallRequest{
		RequestID: "r1", OperationType: wire.OpAwait, PropertyPath: "Greeting",
	})
	if resp.ResultType != wire.ResultOK {
		t.Fatalf("ResultType = %v, want ok", resp.ResultType)
	}
	var got string
	if err := json.Unmarshal(resp.Result, &got); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if got != "hello" {
		t.Errorf("Greeting = %q, want %q", got, "hello")
	}
}

func TestProvider_Await_NestedPath(t *testing.T) {
	t.Parallel()

	p, consumerCh := newProviderPair(newDemoRoot(), Options{})
	defer p.Close()

	resp := roundTrip(t, p, consumerCh, wire.RemoteCallRequest{
		RequestID: "r1", OperationType: wire.OpAwait, PropertyPath: "Nested/Greeting",
	})
	var got string
	_ = json.Unmarshal(resp.Result, &got)
	if got != "nested" {
		t.Errorf("Nested/Greeting = %q, want %q", got, "nested")
	}
}

func TestProvider_Call_InvokesFunc(t *testing.T) {
	t.Parallel()

	p, consumerCh := newProviderPair(newDemoRoot(), Options{})
	defer p.Close()

	argRaw, _ := json.Marshal("hi")
	resp := roundTrip(t, p, consumerCh, wire.RemoteCallRequest{
		RequestID: "r1", OperationType: wire.OpCall, PropertyPath: "Shout",
		Args: []json.RawMessage{argRaw},
	})
	if resp.ResultType != wire.ResultOK {
		t.Fatalf("ResultType = %v, want ok; result=%s", resp.ResultType, resp.Result)
	}
	var got string
	_ = json.Unmarshal(resp.Result, &got)
	if got != "hi!" {
		t.Errorf("Shout(hi) = %q, want %q", got, "hi!")
	}
}

func TestProvider_Call_NotAFunction(t *testing.T) {
	t.Parallel()

	p, consumerCh := newProviderPair(newDemoRoot(), Options{})
	defer p.Close()

	resp := roundTrip(t, p, consumerCh, wire.RemoteCallRequest{
		RequestID: "r1", OperationType: wire.OpCall, PropertyPath: "Greeting",
	})
	assertErrorKind(t, resp, string(KindNotAFunction))
}

func TestProvider_ForbiddenProperty(t *testing.T) {
	t.Parallel()

	p, consumerCh := newProviderPair(newDemoRoot(), Options{})
	defer p.Close()

	resp := roundTrip(t, p, consumerCh, wire.RemoteCallRequest{
		RequestID: "r1", OperationType: wire.OpAwait, PropertyPath: "__proto__",
	})
	assertErrorKind(t, resp, string(KindForbiddenProperty))
}

func TestProvider_Set_DeniedWithoutAllowWrite(t *testing.T) {
	t.Parallel()

	p, consumerCh := newProviderPair(newDemoRoot(), Options{})
	defer p.Close()

	valueRaw, _ := json.Marshal("bye")
	resp := roundTrip(t, p, consumerCh, wire.RemoteCallRequest{
		RequestID: "r1", OperationType: wire.OpSet, PropertyPath: "Greeting",
		Args: []json.RawMessage{valueRaw},
	})
	assertErrorKind(t, resp, string(KindWriteDenied))
}

func TestProvider_Set_AllowedWithAllowWrite(t *testing.T) {
	t.Parallel()

	root := newDemoRoot()
	p, consumerCh := newProviderPair(root, Options{AllowWrite: true})
	defer p.Close()

	valueRaw, _ := json.Marshal("bye")
	resp := roundTrip(t, p, consumerCh, wire.RemoteCallRequest{
		RequestID: "r1", OperationType: wire.OpSet, PropertyPath: "Greeting",
		Args: []json.RawMessage{valueRaw},
	})
	if resp.ResultType != wire.ResultOK {
		t.Fatalf("ResultType = %v, want ok", resp.ResultType)
	}
	if root.Greeting != "bye" {
		t.Errorf("Greeting = %q, want %q", root.Greeting, "bye")
	}
}

func TestProvider_Set_RootNotSettable(t *testing.T) {
	t.Parallel()

	p, consumerCh := newProviderPair(newDemoRoot(), Options{AllowWrite: true})
	defer p.Close()

	valueRaw, _ := json.Marshal("whatever")
	resp := roundTrip(t, p, consumerCh, wire.RemoteCallRequest{
		RequestID: "r1", OperationType: wire.OpSet, PropertyPath: "",
		Args: []json.RawMessage{valueRaw},
	})
	assertErrorKind(t, resp, string(KindRootNotSettable))
}

func TestProvider_UnknownOperation(t *testing.T) {
	t.Parallel()

	p, consumerCh := newProviderPair(newDemoRoot(), Options{})
	defer p.Close()

	resp := roundTrip(t, p, consumerCh, wire.RemoteCallRequest{
		RequestID: "r1", OperationType: "bogus", PropertyPath: "Greeting",
	})
	assertErrorKind(t, resp, string(KindUnknownOperation))
}

func TestProvider_ResolutionFailed(t *testing.T) {
	t.Parallel()

	p, consumerCh := newProviderPair(newDemoRoot(), Options{})
	defer p.Close()

	resp := roundTrip(t, p, consumerCh, wire.RemoteCallRequest{
		RequestID: "r1", OperationType: wire.OpAwait, PropertyPath: "DoesNotExist",
	})
	assertErrorKind(t, resp, string(KindResolutionFailed))
}

func assertErrorKind(t *testing.T, resp wire.RemoteCallResponse, want string) {
	t.Helper()
	if resp.ResultType != wire.ResultError {
		t.Fatalf("ResultType = %v, want error", resp.ResultType)
	}
	var desc wire.ErrorDescriptor
	if err := json.Unmarshal(resp.Result, &desc); err != nil {
		t.Fatalf("decoding error descriptor: %v", err)
	}
	if desc.Kind != want {
		t.Errorf("Kind = %q, want %q", desc.Kind, want)
	}
}
