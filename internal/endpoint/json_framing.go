package endpoint

import (
	"encoding/json"
	"log/slog"
)

// TextChannel is a text-only message channel: it can send a string and
// deliver inbound strings to a listener. Concrete text transports (a
// websocket in text-frame mode, a line-oriented stdio pipe) implement this.
type TextChannel interface {
	PostText(text string) error
	SubscribeText(listener func(text string)) Unsubscribe
	Close() error
}

// JSONFraming wraps a TextChannel into a structured Endpoint: outbound
// values are serialised with encoding/json, inbound text is parsed back into
// a generic value. Per spec §4.1, a message that fails to parse is dropped
// (not propagated) after logging — a malformed message cannot be matched to
// any pending request and has no recovery path.
type JSONFraming struct {
	text   TextChannel
	logger *slog.Logger
}

// NewJSONFraming wraps text as a structured Endpoint.
func NewJSONFraming(text TextChannel, logger *slog.Logger) *JSONFraming {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONFraming{text: text, logger: logger}
}

// Post serialises message to JSON and writes it to the underlying channel.
func (f *JSONFraming) Post(message interface{}) error {
	raw, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return f.text.PostText(string(raw))
}

// Subscribe parses each inbound text frame as JSON into a generic value
// (map[string]interface{} / []interface{} / scalars) and delivers it.
// Parse failures are dropped and logged at Debug level, never propagated.
func (f *JSONFraming) Subscribe(listener Listener) Unsubscribe {
	return f.text.SubscribeText(func(text string) {
		var payload interface{}
		if err := json.Unmarshal([]byte(text), &payload); err != nil {
			f.logger.Debug("json framing: dropping unparsable message", "error", err)
			return
		}
		listener(Event{Data: payload})
	})
}

// Close closes the underlying text channel.
func (f *JSONFraming) Close() error {
	return f.text.Close()
}

var _ Endpoint = (*JSONFraming)(nil)
