package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/remobj/remobj-go/internal/endpoint"
)

func startServer(t *testing.T) (serverEP chan endpoint.Endpoint, url string) {
	t.Helper()
	serverEP = make(chan endpoint.Endpoint, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ep, err := Accept(w, r, nil)
		if err != nil {
			t.Errorf("Accept: %v", err)
			return
		}
		serverEP <- ep
	}))
	t.Cleanup(srv.Close)
	return serverEP, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialAccept_RoundTrips(t *testing.T) {
	t.Parallel()

	serverEPCh, url := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clientEP, err := Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer clientEP.Close()

	var serverEP endpoint.Endpoint
	select {
	case serverEP = <-serverEPCh:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for server accept")
	}
	defer serverEP.Close()

	received := make(chan endpoint.Event, 1)
	serverEP.Subscribe(func(ev endpoint.Event) { received <- ev })

	if err := clientEP.Post(map[string]interface{}{"hello": "world"}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	select {
	case ev := <-received:
		m, ok := ev.Data.(map[string]interface{})
		if !ok || m["hello"] != "world" {
			t.Errorf("Data = %#v, want {hello: world}", ev.Data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestDialAccept_Close(t *testing.T) {
	t.Parallel()

	serverEPCh, url := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clientEP, err := Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	var serverEP endpoint.Endpoint
	select {
	case serverEP = <-serverEPCh:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for server accept")
	}
	defer serverEP.Close()

	if err := clientEP.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
