package patch

import (
	"sync"

	"github.com/calyptra/gatepatch/pkg/api"
)

// Registry holds the three patch tables: opcode -> packet patch,
// dispatch-event-name -> event patch, route-template -> route patch.
//
// Installs are full-entry replacements, never merges, so readers always
// observe a consistent patch value even while unrelated reload logic is
// installing entries. Lookups return value copies (snapshots); many
// in-flight requests can read concurrently with writers.
type Registry struct {
	mu         sync.RWMutex
	packets    map[api.Opcode]Packet
	events     map[string]Event
	routes     map[string]Route
	routeOrder []string
}

func NewRegistry() *Registry {
	return &Registry{
		packets: make(map[api.Opcode]Packet),
		events:  make(map[string]Event),
		routes:  make(map[string]Route),
	}
}

// InstallPacket installs or replaces the packet patch for an opcode.
func (r *Registry) InstallPacket(op api.Opcode, p Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packets[op] = p
}

// InstallEvent installs or replaces the event patch for a dispatch event
// name.
func (r *Registry) InstallEvent(name string, p Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[name] = p
}

// InstallRoute installs or replaces the route patch for a template.
// First-time installs remember insertion order; it is the iteration order
// for the parameterized-match fallback in Route.
func (r *Registry) InstallRoute(template string, p Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.routes[template]; !exists {
		r.routeOrder = append(r.routeOrder, template)
	}
	r.routes[template] = p
}

// Packet looks up the packet patch for an opcode.
func (r *Registry) Packet(op api.Opcode) (Packet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.packets[op]
	return p, ok
}

// Event looks up the event patch for a dispatch event name.
func (r *Registry) Event(name string) (Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.events[name]
	return p, ok
}

// Route resolves the patch for a concrete route path: exact key match
// first, then the first template (in insertion order) that structurally
// matches per Match. More than one template can match a path; the first
// one wins silently.
func (r *Registry) Route(path string) (Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.routes[path]; ok {
		return p, true
	}
	for _, template := range r.routeOrder {
		if Match(path, template) {
			return r.routes[template], true
		}
	}
	return Route{}, false
}

// RemovePacket deletes the packet patch for an opcode.
func (r *Registry) RemovePacket(op api.Opcode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.packets, op)
}

// RemoveEvent deletes the event patch for a dispatch event name.
func (r *Registry) RemoveEvent(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.events, name)
}

// RemoveRoute deletes a route patch and its insertion-order slot.
func (r *Registry) RemoveRoute(template string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.routes[template]; !exists {
		return
	}
	delete(r.routes, template)
	for i, t := range r.routeOrder {
		if t == template {
			r.routeOrder = append(r.routeOrder[:i], r.routeOrder[i+1:]...)
			break
		}
	}
}

// RouteTemplates returns the installed route templates in insertion order.
func (r *Registry) RouteTemplates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.routeOrder...)
}
