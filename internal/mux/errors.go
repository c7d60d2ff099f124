package mux

import "errors"

// ErrMultiplexerClosed is returned by a virtual endpoint's Post after the
// owning Multiplexer has been closed.
var ErrMultiplexerClosed = errors.New("mux: multiplexer closed")
