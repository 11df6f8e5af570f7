package gateway

import (
	"encoding/json"
	"math"

	"github.com/calyptra/gatepatch/internal/errx"
	"github.com/calyptra/gatepatch/pkg/api"
)

// decodeFrame expands a frame into the generic payload map patch hooks
// operate on. Envelope keys mirror the wire names: op, d, s, t. Absent
// s/t keys are omitted rather than set to zero values so hooks can
// distinguish "missing" from "empty".
func decodeFrame(f *api.Frame) (map[string]any, error) {
	payload := map[string]any{"op": int(f.Op)}
	if len(f.D) > 0 {
		var d any
		if err := json.Unmarshal(f.D, &d); err != nil {
			return nil, errx.Wrap(api.ErrFrameDecode, err)
		}
		payload["d"] = d
	}
	if f.S != 0 {
		payload["s"] = f.S
	}
	if f.T != "" {
		payload["t"] = f.T
	}
	return payload, nil
}

// encodeFrame folds a patched payload map back into the frame envelope.
// The op and t values come from the map so patches can rewrite them
// through the explicit hook path.
func encodeFrame(payload map[string]any) (*api.Frame, error) {
	f := &api.Frame{}

	op, ok := toInt(payload["op"])
	if !ok {
		return nil, errx.With(api.ErrFrameEncode, ": payload has no numeric op")
	}
	f.Op = api.Opcode(op)

	if d, ok := payload["d"]; ok && d != nil {
		raw, err := json.Marshal(d)
		if err != nil {
			return nil, errx.Wrap(api.ErrFrameEncode, err)
		}
		f.D = raw
	}
	if s, ok := toInt(payload["s"]); ok {
		f.S = s
	}
	if t, ok := payload["t"].(string); ok {
		f.T = t
	}
	return f, nil
}

// toInt coerces the numeric shapes a round-trip through a generic JSON
// map can produce.
func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
