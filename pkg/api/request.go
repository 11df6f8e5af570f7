package api

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// RouteRequest is a logical REST request before resolution into wire form.
// Route is the path used for patch selection; it is a concrete path at
// request time (templates with {:name} exist only as registry keys).
type RouteRequest struct {
	Method  string
	Route   string
	Query   url.Values
	Body    json.RawMessage
	Headers http.Header
}

// Clone returns a shallow copy safe for route rewriting. Query, Body and
// Headers are shared; patches that mutate them should replace, not edit.
func (r *RouteRequest) Clone() *RouteRequest {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// ResolvedRequest is the wire form of a request: target URL plus header
// set, produced after resolution but before bytes leave the process.
//
// A resolver may populate headers either as HeaderLines ("Name: value"
// strings, in order) or as the Headers bag. The rest interceptor
// normalizes to the bag form before any patch that reads or writes a
// named header.
type ResolvedRequest struct {
	URL         string
	HeaderLines []string
	Headers     *Headers
}

// Response is a REST response as seen by post-hooks. Body stays raw JSON;
// patches that rewrite it decode, merge and re-encode so untouched fields
// survive verbatim.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       json.RawMessage
}
