package spoof

import (
	"encoding/json"
	"strings"

	"github.com/calyptra/gatepatch/internal/errx"
	"github.com/calyptra/gatepatch/pkg/api"
)

// identifyOutbound overwrites the capability bitmask and the identity
// descriptor block on the identify handshake, and deletes the shard hint:
// the remote service rejects sharded connections from this spoofed
// identity.
func identifyOutbound(s *api.Session, payload map[string]any) (map[string]any, error) {
	d, ok := payload["d"].(map[string]any)
	if !ok {
		return payload, nil
	}

	caps := s.Capabilities
	if caps == 0 {
		caps = Capabilities
	}
	d["capabilities"] = caps
	d["properties"] = propertiesMap(s)
	delete(d, "shard")
	return payload, nil
}

// propertiesMap renders the session's identity block (or the package
// defaults) as the wire-shaped properties object.
func propertiesMap(s *api.Session) map[string]any {
	props := s.Properties
	if props == (api.IdentifyProperties{}) {
		props = DefaultProperties()
	}
	var m map[string]any
	raw, err := json.Marshal(props)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// gatewayInfoPost runs on the response of the redirected gateway-bot-info
// request. The generic gateway route carries no session-start-limit, so
// one with maximal allowance is synthesized under the real fields, and
// the shard count is pinned to 1 to stay consistent with single-shard
// user-style connections.
func gatewayInfoPost(s *api.Session, req *api.RouteRequest, resp *api.Response) (*api.Response, error) {
	var body map[string]any
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, errx.Wrap(errDecodeGatewayInfo, err)
	}

	body["shards"] = 1
	body["session_start_limit"] = map[string]any{
		"total":           1,
		"remaining":       1,
		"reset_after":     0,
		"max_concurrency": 1,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, errx.Wrap(errEncodeGatewayInfo, err)
	}

	out := *resp
	out.Body = raw
	return &out, nil
}

// stripBearerResolve removes the "Bearer " framing from the resolved
// Authorization header. The per-user-profile endpoint rejects
// bearer-style authorization; every other header passes through
// untouched.
func stripBearerResolve(s *api.Session, req *api.RouteRequest, form *api.ResolvedRequest) (*api.ResolvedRequest, error) {
	if form.Headers == nil {
		return form, nil
	}
	auth := form.Headers.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		form.Headers.Set("Authorization", strings.TrimPrefix(auth, "Bearer "))
	}
	return form, nil
}

// readyInbound injects a placeholder application identity block into the
// ready payload. Spoofed connections never receive one natively and
// downstream logic expects it to exist.
func readyInbound(s *api.Session, data map[string]any) (map[string]any, error) {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["application"]; !ok {
		id := s.ApplicationID
		if id == "" {
			id = placeholderApplicationID
		}
		data["application"] = map[string]any{
			"id":    id,
			"flags": 0,
		}
	}
	return data, nil
}
