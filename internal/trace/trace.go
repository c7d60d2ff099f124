// Package trace implements the optional devtools tap (spec §4.6): an
// OpenTelemetry span per message crossing a channel boundary, carrying
// side, objectID, realmID, operation, and path as span attributes; the
// span's own trace ID and start time stand for traceID and timestamp.
package trace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Side identifies which half of a channel emitted a tapped message.
type Side string

const (
	SideProvider Side = "provider"
	SideConsumer Side = "consumer"
)

// Tap wraps an OTel tracer bound to a fixed instrumentation name, emitting
// one span per message (spec §4.6: "a devtools integration may tap every
// message crossing the channel boundary without altering delivery").
type Tap struct {
	tracer trace.Tracer
}

// NewTap returns a Tap using the global OTel TracerProvider. Callers that
// want spans exported somewhere in particular configure that provider
// globally (e.g. via otel.SetTracerProvider) before calling NewTap.
func NewTap() *Tap {
	return &Tap{tracer: otel.Tracer("github.com/remobj/remobj-go")}
}

// Message starts and immediately ends a span describing one tapped message.
// It never returns an error and never blocks delivery: a devtools tap is
// observational only.
func (t *Tap) Message(ctx context.Context, side Side, objectID, realmID, operation, path string) {
	if t == nil {
		return
	}
	_, span := t.tracer.Start(ctx, "remobj.message",
		trace.WithAttributes(
			attribute.String("remobj.side", string(side)),
			attribute.String("remobj.object_id", objectID),
			attribute.String("remobj.realm_id", realmID),
			attribute.String("remobj.operation", operation),
			attribute.String("remobj.path", path),
		),
	)
	span.End()
}
