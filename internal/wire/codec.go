package wire

import "encoding/json"

// Redecode converts an arbitrary value — which may already be a concrete Go
// struct (when the transport preserves native values, e.g. an in-process
// pipe) or a generic map[string]interface{}/[]interface{} (when it passed
// through JSON framing) — into the concrete type *out points to. It works by
// round-tripping through encoding/json, which both decodes generic values and
// is a no-op-shaped copy for values that are already the right shape.
func Redecode(in interface{}, out interface{}) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
