package endpoint

import "errors"

// ErrClosed is returned by Post after an endpoint (or its peer) has closed.
var ErrClosed = errors.New("endpoint: closed")
