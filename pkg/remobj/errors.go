package remobj

import "github.com/remobj/remobj-go/internal/consumer"

// Sentinel and typed errors a caller of a Proxy operation may see. These are
// re-exported so callers never need to import the internal consumer package
// directly.
var (
	ErrDisposed          = consumer.ErrDisposed
	ErrTimeout           = consumer.ErrTimeout
	ErrForbiddenProperty = consumer.ErrForbiddenProperty
)

// RemoteError is returned when a provider answers a request with
// ResultType == "error"; it carries the provider-assigned error kind
// alongside its message (full in DevMode, a short code otherwise — spec §7).
type RemoteError = consumer.RemoteError
