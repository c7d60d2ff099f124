// Package websocket provides a concrete endpoint.Endpoint backed by a real
// websocket connection (spec §6: one of the "external collaborator"
// transports a consumer/provider pair may run over). It wraps
// gorilla/websocket's *Conn as an endpoint.TextChannel and layers
// endpoint.JSONFraming on top, the same composition benitogf/ooo's
// stream package uses for its own websocket broadcast layer, generalized
// from broadcast-to-many to the plain one-peer request/response shape this
// module needs.
package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/remobj/remobj-go/internal/endpoint"
)

// DefaultWriteTimeout bounds how long a single frame write may block before
// the connection is considered dead, mirroring the teacher's
// stream.DefaultWriteTimeout.
const DefaultWriteTimeout = 15 * time.Second

// Upgrader is shared by every inbound connection accepted via Accept. Callers
// that need a custom CheckOrigin policy can replace it before calling
// Accept; in practice nearly every remobj deployment terminates TLS upstream of this process, so
// the default (accept any origin) matches the teacher's own StreamUpgrader.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// conn adapts a *websocket.Conn into an endpoint.TextChannel: a single
// background goroutine reads frames and fans them out to subscribers, while
// writes are serialized under a mutex (gorilla/websocket permits only one
// concurrent writer per connection).
type conn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	listeners []func(string)
	closed    bool
}

func newConn(ws *websocket.Conn, logger *slog.Logger) *conn {
	if logger == nil {
		logger = slog.Default()
	}
	c := &conn{ws: ws, logger: logger}
	go c.readLoop()
	return c
}

func (c *conn) readLoop() {
	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			c.logger.Debug("websocket: read loop exiting", "error", err)
			_ = c.Close()
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		c.mu.Lock()
		listeners := append([]func(string){}, c.listeners...)
		c.mu.Unlock()
		for _, l := range listeners {
			l(string(data))
		}
	}
}

// PostText writes text as a single websocket text frame.
func (c *conn) PostText(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(DefaultWriteTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, []byte(text))
}

// SubscribeText registers listener for inbound text frames. The returned
// function stops further delivery to listener.
func (c *conn) SubscribeText(listener func(string)) endpoint.Unsubscribe {
	var removed atomic.Bool
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, func(text string) {
		if !removed.Load() {
			listener(text)
		}
	})
	return func() { removed.Store(true) }
}

// Close closes the underlying connection. Idempotent.
func (c *conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.ws.Close()
}

var _ endpoint.TextChannel = (*conn)(nil)

// Accept upgrades r into a websocket connection and wraps it as an
// endpoint.Endpoint. The caller is responsible for routing the HTTP
// handshake request to this function (e.g. from an http.Handler serving the
// provider's listen address).
func Accept(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (endpoint.Endpoint, error) {
	ws, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return endpoint.NewJSONFraming(newConn(ws, logger), logger), nil
}

// Dial connects to url (e.g. "ws://127.0.0.1:8080/") and wraps the resulting
// connection as an endpoint.Endpoint.
func Dial(ctx context.Context, url string, logger *slog.Logger) (endpoint.Endpoint, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return endpoint.NewJSONFraming(newConn(ws, logger), logger), nil
}
