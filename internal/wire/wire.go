// Package wire defines the on-the-wire message shapes exchanged between a
// consumer and a provider, and the rules (forbidden set, clonability) that
// govern what may cross the boundary as-is versus what must be sub-channeled.
package wire

import "encoding/json"

// OperationType is the kind of terminal operation a consumer performed on a
// proxy, carried in a RemoteCallRequest.
type OperationType string

const (
	OpCall      OperationType = "call"
	OpConstruct OperationType = "construct"
	OpSet       OperationType = "set"
	OpAwait     OperationType = "await"
)

// Valid reports whether t is one of the four allowed operation types.
func (t OperationType) Valid() bool {
	switch t {
	case OpCall, OpConstruct, OpSet, OpAwait:
		return true
	default:
		return false
	}
}

// ResultType discriminates a RemoteCallResponse's Result field.
type ResultType string

const (
	ResultOK    ResultType = "result"
	ResultError ResultType = "error"
)

// RemoteCallRequest is the normative request shape described in spec §6.
type RemoteCallRequest struct {
	RequestID     string          `json:"requestID"`
	ConsumerID    string          `json:"consumerID"`
	RealmID       string          `json:"realmID"`
	OperationType OperationType   `json:"operationType"`
	PropertyPath  string          `json:"propertyPath"`
	Args          []json.RawMessage `json:"args"`
}

// RemoteCallResponse is the normative response shape described in spec §6.
type RemoteCallResponse struct {
	Type       string          `json:"type"`
	RequestID  string          `json:"requestID"`
	ProviderID string          `json:"providerID"`
	ResultType ResultType      `json:"resultType"`
	Result     json.RawMessage `json:"result"`
}

// ResponseTypeTag is the literal value carried in RemoteCallResponse.Type.
const ResponseTypeTag = "response"

// ChannelRefKind tags a wrapped argument/result reference.
const ChannelRefKind = "channel-ref"

// ChannelRef is the wire form of a non-clonable argument or result: a
// reference to a freshly opened multiplex sub-channel carrying a sub-provider
// (request side) or sub-consumer (response side).
type ChannelRef struct {
	Kind      string `json:"kind"`
	ChannelID string `json:"channelID"`
}

// IsChannelRef reports whether raw decodes as a ChannelRef.
func IsChannelRef(raw json.RawMessage) (ChannelRef, bool) {
	var ref ChannelRef
	if len(raw) == 0 {
		return ChannelRef{}, false
	}
	if err := json.Unmarshal(raw, &ref); err != nil {
		return ChannelRef{}, false
	}
	return ref, ref.Kind == ChannelRefKind && ref.ChannelID != ""
}

// ErrorDescriptor is the wire shape of an error returned in a
// RemoteCallResponse with ResultType == ResultError.
type ErrorDescriptor struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// Forbidden property names (spec §3, §6). A path segment matching any of
// these must never be traversed by the provider or produced as a sub-proxy
// by the consumer.
var forbidden = map[string]struct{}{
	"__proto__":   {},
	"prototype":   {},
	"constructor": {},
	"then":        {},
	"catch":       {},
	"finally":     {},
}

// IsForbidden reports whether a single path segment is on the forbidden set.
func IsForbidden(segment string) bool {
	_, ok := forbidden[segment]
	return ok
}
