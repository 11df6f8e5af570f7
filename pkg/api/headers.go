package api

import "strings"

// Headers is an ordered name-to-value header mapping. Names keep the
// casing they were first written with; lookups are case-insensitive.
// Insertion order is preserved so re-serialized requests keep their
// original header shape.
type Headers struct {
	keys   []string
	values map[string]string
}

func NewHeaders() *Headers {
	return &Headers{values: make(map[string]string)}
}

// Set writes a header value. If a name already exists under any casing,
// its stored casing and position are kept and only the value changes.
func (h *Headers) Set(name, value string) {
	if existing, ok := h.lookupKey(name); ok {
		h.values[existing] = value
		return
	}
	h.keys = append(h.keys, name)
	h.values[name] = value
}

// Get returns the value for a name, matching case-insensitively.
func (h *Headers) Get(name string) string {
	if existing, ok := h.lookupKey(name); ok {
		return h.values[existing]
	}
	return ""
}

// Has reports whether a header is present under any casing.
func (h *Headers) Has(name string) bool {
	_, ok := h.lookupKey(name)
	return ok
}

// Del removes a header under any casing.
func (h *Headers) Del(name string) {
	existing, ok := h.lookupKey(name)
	if !ok {
		return
	}
	delete(h.values, existing)
	for i, k := range h.keys {
		if k == existing {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the header names in first-seen order.
func (h *Headers) Keys() []string {
	return append([]string(nil), h.keys...)
}

func (h *Headers) Len() int {
	return len(h.keys)
}

// Clone returns an independent copy.
func (h *Headers) Clone() *Headers {
	cp := NewHeaders()
	for _, k := range h.keys {
		cp.Set(k, h.values[k])
	}
	return cp
}

func (h *Headers) lookupKey(name string) (string, bool) {
	if _, ok := h.values[name]; ok {
		return name, true
	}
	for k := range h.values {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}
