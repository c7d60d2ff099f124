package provider

import "context"

// Func is the Go shape a remotely callable leaf of an exposed object tree
// takes. It replaces the "ordinary property lookup finds a function" idiom
// from the source spec: since Go has no universal callable value, any node
// in the exposed tree meant to answer `call`/`construct` must be a Func. An
// exported method with Func's signature is converted to a Func during path
// resolution.
type Func func(ctx context.Context, args []interface{}) (interface{}, error)

// Awaitable is implemented by a property value whose `await` operation
// (spec §4.3/§4.5) must resolve asynchronously rather than return
// immediately — the Go analogue of "the target value... may be a promise".
// A property value that does not implement Awaitable is already settled;
// `await` on it simply returns the value unchanged.
type Awaitable interface {
	Await(ctx context.Context) (interface{}, error)
}
