package api

import "encoding/json"

// Frame is the gateway frame envelope, bit-exact with the remote protocol.
// D stays raw so frames with no registered patch pass through byte-for-byte.
type Frame struct {
	Op Opcode          `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  int64           `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

// Clone returns a copy of the frame with its own payload buffer.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	cp := *f
	if f.D != nil {
		cp.D = append(json.RawMessage(nil), f.D...)
	}
	return &cp
}
