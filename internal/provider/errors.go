package provider

import "fmt"

// ErrorKind is the provider-side error taxonomy from spec §4.3/§7.
type ErrorKind string

const (
	KindInvalidMessage    ErrorKind = "invalid-message"
	KindForbiddenProperty ErrorKind = "forbidden-property"
	KindRootNotSettable   ErrorKind = "root-not-settable"
	KindReadonlyViolation ErrorKind = "readonly-violation"
	KindWriteDenied       ErrorKind = "write-denied"
	KindNotAFunction      ErrorKind = "not-a-function"
	KindUnknownOperation  ErrorKind = "unknown-operation"
	KindResolutionFailed  ErrorKind = "resolution-failed"
	KindUserThrown        ErrorKind = "user-thrown"
	KindPolicyDenied      ErrorKind = "forbidden-property"
)

// shortCodes maps each ErrorKind to the production short code sent on the
// wire when DevMode is off (spec §7: "production, messages are short codes
// ... to avoid leaking internal structure").
var shortCodes = map[ErrorKind]string{
	KindInvalidMessage:    "E001",
	KindForbiddenProperty: "E002",
	KindRootNotSettable:   "E003",
	KindReadonlyViolation: "E004",
	KindWriteDenied:       "E005",
	KindNotAFunction:      "E006",
	KindUnknownOperation:  "E007",
	KindResolutionFailed:  "E008",
	KindUserThrown:        "E009",
}

// DispatchError is the provider-side error returned by a failed dispatch.
// It carries enough structure to build either a development-mode descriptive
// response or a production-mode short-code response (spec §7).
type DispatchError struct {
	Kind    ErrorKind
	Message string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// WireMessage returns the message to put on the wire for this error: the
// full descriptive message in devMode, or the short code otherwise.
func (e *DispatchError) WireMessage(devMode bool) string {
	if devMode {
		return e.Message
	}
	if code, ok := shortCodes[e.Kind]; ok {
		return code
	}
	return "E000"
}

func newError(kind ErrorKind, format string, args ...interface{}) *DispatchError {
	return &DispatchError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
