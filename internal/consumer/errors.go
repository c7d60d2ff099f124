package consumer

import "errors"

// Sentinel errors surfaced by a Proxy's operations (spec §4.5, §8).
var (
	// ErrDisposed is returned by any operation on a Proxy whose Engine has
	// been disposed.
	ErrDisposed = errors.New("consumer: disposed")
	// ErrTimeout is returned when a request's response does not arrive
	// within the configured timeout.
	ErrTimeout = errors.New("consumer: request timed out")
	// ErrForbiddenProperty is returned by Get for a forbidden path segment
	// (spec §4.2) before any wire traffic is sent.
	ErrForbiddenProperty = errors.New("consumer: forbidden property")
)

// RemoteError wraps an error response sent back by a provider, preserving
// the provider-assigned error kind alongside its message.
type RemoteError struct {
	Kind    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Kind == "" {
		return e.Message
	}
	return e.Kind + ": " + e.Message
}
