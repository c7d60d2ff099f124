// Package endpoint defines the minimal bidirectional message-passing
// contract that every transport adapter (in-process pipe, websocket, stdio,
// ...) and the multiplexer implement, per spec §3/§4.1.
package endpoint

// Event wraps an inbound message the way a listener receives it. Data is
// the opaque message delivered by the peer, unchanged by the transport.
type Event struct {
	Data interface{}
}

// Listener is notified of inbound events.
type Listener func(Event)

// Unsubscribe removes a previously registered listener.
type Unsubscribe func()

// Endpoint is the thinnest message-passing surface in the system: post a
// message, subscribe to inbound messages. Concrete transports (worker,
// websocket, window postMessage, node IPC — all external collaborators per
// spec §1) implement this contract; so does every virtual channel the
// multiplexer fabricates.
type Endpoint interface {
	// Post sends message to the peer. Delivery semantics (ordering,
	// reliability) are whatever the concrete transport provides.
	Post(message interface{}) error

	// Subscribe registers listener for inbound messages and returns a
	// function that removes it. Subscribing does not replay past messages.
	Subscribe(listener Listener) Unsubscribe

	// Close releases any resources the endpoint holds and drops its
	// listeners. Close is idempotent. Transports return an error from Post
	// after Close; a multiplexer's virtual channel keeps forwarding Post to
	// the shared raw endpoint until the Multiplexer itself is closed.
	Close() error
}
