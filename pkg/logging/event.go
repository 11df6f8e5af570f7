package logging

import (
	"encoding/json"
	"time"
)

// Event is the canonical structured record for interception activity.
// Required fields: Timestamp, RunID, Client, EventType, Summary.
// Optional fields use omitempty tags.
type Event struct {
	Timestamp time.Time       `json:"ts"`
	RunID     string          `json:"run_id"`
	Client    string          `json:"client"`
	EventType string          `json:"event_type"`
	Summary   string          `json:"summary"`
	Patch     string          `json:"patch,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Event type constants.
const (
	EventFramePatch    = "frame_patch"
	EventEventPatch    = "event_patch"
	EventRouteRedirect = "route_redirect"
	EventHeaderRewrite = "header_rewrite"
	EventShardAttach   = "shard_attach"
	EventHTTPRequest   = "http_request"
	EventHTTPResponse  = "http_response"
)

// FramePatchData is the data payload for frame_patch events.
type FramePatchData struct {
	Direction string `json:"direction"`
	Op        int    `json:"op"`
	OpName    string `json:"op_name"`
	Event     string `json:"event,omitempty"`
}

// EventPatchData is the data payload for event_patch events. RenamedFrom
// is set when a packet-level patch changed the event name before the
// event-level patch fired.
type EventPatchData struct {
	Event       string `json:"event"`
	RenamedFrom string `json:"renamed_from,omitempty"`
}

// RouteRedirectData is the data payload for route_redirect events.
type RouteRedirectData struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// HeaderRewriteData is the data payload for header_rewrite events.
type HeaderRewriteData struct {
	Route  string `json:"route"`
	Header string `json:"header"`
}

// ShardAttachData is the data payload for shard_attach events.
type ShardAttachData struct {
	ShardID int `json:"shard_id"`
}

// HTTPRequestData is the data payload for http_request events.
type HTTPRequestData struct {
	Method     string `json:"method"`
	Route      string `json:"route"`
	Redirected bool   `json:"redirected"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// HTTPResponseData is the data payload for http_response events.
type HTTPResponseData struct {
	Method     string `json:"method"`
	Route      string `json:"route"`
	StatusCode int    `json:"status_code"`
	DurationMS int64  `json:"duration_ms"`
	BodyBytes  int64  `json:"body_bytes"`
}
