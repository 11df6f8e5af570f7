// Package patch holds the declarative registry of traffic patches and the
// route-template matcher. The registry is process-lifetime, in-memory
// state: created once per client, seeded at startup, mutated at runtime by
// configuration-reload logic. Interceptors consult it on every frame and
// request.
package patch

import "github.com/calyptra/gatepatch/pkg/api"

// PacketHook transforms a fully decoded gateway frame. The payload map
// carries the envelope keys (op, d, s, t); hooks may mutate it in place or
// return a replacement of the same shape. Returned values are trusted
// as-is.
type PacketHook func(s *api.Session, payload map[string]any) (map[string]any, error)

// EventHook transforms the inner event data of a dispatch frame, not the
// envelope.
type EventHook func(s *api.Session, data map[string]any) (map[string]any, error)

// PreHook rewrites a logical request before the underlying client runs it.
type PreHook func(s *api.Session, req *api.RouteRequest) (*api.RouteRequest, error)

// PostHook rewrites a response. It receives the request as it looked after
// the pre-hook.
type PostHook func(s *api.Session, req *api.RouteRequest, resp *api.Response) (*api.Response, error)

// ResolveHook rewrites the wire form of a request (URL plus headers) after
// resolution but before transmission. Headers are always in the normalized
// bag form by the time the hook runs.
type ResolveHook func(s *api.Session, req *api.RouteRequest, form *api.ResolvedRequest) (*api.ResolvedRequest, error)

// Packet patches a gateway frame category, keyed by opcode.
type Packet struct {
	Inbound  PacketHook
	Outbound PacketHook
}

// Event patches a dispatch-frame subtype, keyed by event name. Applied
// strictly after the packet-level patch.
type Event struct {
	Inbound EventHook
}

// Route patches a REST route, keyed by route template.
type Route struct {
	// Redirect replaces the logical path before the request proceeds.
	// It does not change which patch was selected.
	Redirect string
	Pre      PreHook
	Post     PostHook
	Resolve  ResolveHook
}
