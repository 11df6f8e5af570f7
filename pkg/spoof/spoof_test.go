package spoof

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyptra/gatepatch/pkg/api"
	"github.com/calyptra/gatepatch/pkg/gateway"
	"github.com/calyptra/gatepatch/pkg/patch"
	"github.com/calyptra/gatepatch/pkg/rest"
)

func newInstalled(t *testing.T) (*patch.Registry, *api.Session) {
	t.Helper()
	reg := patch.NewRegistry()
	Install(reg)
	return reg, NewSession("tok")
}

func TestIdentify_SpoofsCapabilitiesAndProperties(t *testing.T) {
	reg, sess := newInstalled(t)
	gi := gateway.NewInterceptor(reg, sess, nil, nil)

	f := &api.Frame{
		Op: api.OpIdentify,
		D:  json.RawMessage(`{"token":"tok","capabilities":0,"shard":[0,2]}`),
	}
	out, err := gi.Outbound(f)
	require.NoError(t, err)

	var d map[string]any
	require.NoError(t, json.Unmarshal(out.D, &d))
	assert.Equal(t, float64(Capabilities), d["capabilities"])
	assert.NotContains(t, d, "shard")
	assert.Equal(t, "tok", d["token"])

	props, ok := d["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Chrome", props["browser"])
	assert.Equal(t, DefaultUserAgent, props["browser_user_agent"])
	assert.Equal(t, "Windows", props["os"])
	assert.Equal(t, float64(291963), props["client_build_number"])
	// The wire shape carries the full key set, including empties.
	assert.Contains(t, props, "client_event_source")
	assert.Contains(t, props, "referrer")
}

func TestIdentify_SessionOverridesWin(t *testing.T) {
	reg, sess := newInstalled(t)
	sess.Capabilities = 16
	sess.Properties.SystemLocale = "de"
	gi := gateway.NewInterceptor(reg, sess, nil, nil)

	out, err := gi.Outbound(&api.Frame{Op: api.OpIdentify, D: json.RawMessage(`{"token":"tok"}`)})
	require.NoError(t, err)

	var d map[string]any
	require.NoError(t, json.Unmarshal(out.D, &d))
	assert.Equal(t, float64(16), d["capabilities"])
	props := d["properties"].(map[string]any)
	assert.Equal(t, "de", props["system_locale"])
}

func TestReady_InjectsApplicationBlock(t *testing.T) {
	reg, sess := newInstalled(t)
	gi := gateway.NewInterceptor(reg, sess, nil, nil)

	f := &api.Frame{Op: api.OpDispatch, T: "READY", S: 1, D: json.RawMessage(`{"v":9,"user":{"id":"1"}}`)}
	out, err := gi.Inbound(f)
	require.NoError(t, err)

	var d map[string]any
	require.NoError(t, json.Unmarshal(out.D, &d))
	app, ok := d["application"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0", app["id"])
	assert.Equal(t, float64(0), app["flags"])
	// Untouched fields survive.
	assert.Equal(t, float64(9), d["v"])
}

func TestReady_KeepsExistingApplicationBlock(t *testing.T) {
	reg, sess := newInstalled(t)
	gi := gateway.NewInterceptor(reg, sess, nil, nil)

	f := &api.Frame{Op: api.OpDispatch, T: "READY", D: json.RawMessage(`{"application":{"id":"77","flags":4}}`)}
	out, err := gi.Inbound(f)
	require.NoError(t, err)

	var d map[string]any
	require.NoError(t, json.Unmarshal(out.D, &d))
	app := d["application"].(map[string]any)
	assert.Equal(t, "77", app["id"])
}

func TestReady_UsesConfiguredApplicationID(t *testing.T) {
	reg, sess := newInstalled(t)
	sess.ApplicationID = "9001"
	gi := gateway.NewInterceptor(reg, sess, nil, nil)

	out, err := gi.Inbound(&api.Frame{Op: api.OpDispatch, T: "READY", D: json.RawMessage(`{}`)})
	require.NoError(t, err)

	var d map[string]any
	require.NoError(t, json.Unmarshal(out.D, &d))
	app := d["application"].(map[string]any)
	assert.Equal(t, "9001", app["id"])
}

func TestGatewayBot_RedirectAndSyntheticLimits(t *testing.T) {
	reg, sess := newInstalled(t)
	ri := rest.NewInterceptor(reg, sess, nil, nil)

	doer := func(ctx context.Context, req *api.RouteRequest) (*api.Response, error) {
		// The redirect must land on the generic gateway route, which
		// only carries the URL.
		assert.Equal(t, "/gateway", req.Route)
		return &api.Response{
			StatusCode: 200,
			Body:       json.RawMessage(`{"url":"wss://gateway.example.test"}`),
		}, nil
	}

	resp, err := ri.Request(context.Background(),
		&api.RouteRequest{Method: http.MethodGet, Route: "/gateway/bot"}, doer)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body, &body))
	assert.Equal(t, "wss://gateway.example.test", body["url"])
	assert.Equal(t, float64(1), body["shards"])

	limit, ok := body["session_start_limit"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), limit["total"])
	assert.Equal(t, float64(1), limit["remaining"])
	assert.Equal(t, float64(0), limit["reset_after"])
	assert.Equal(t, float64(1), limit["max_concurrency"])
}

func TestGatewayBot_MalformedBody(t *testing.T) {
	reg, sess := newInstalled(t)
	ri := rest.NewInterceptor(reg, sess, nil, nil)

	_, err := ri.Request(context.Background(),
		&api.RouteRequest{Method: http.MethodGet, Route: "/gateway/bot"},
		func(ctx context.Context, req *api.RouteRequest) (*api.Response, error) {
			return &api.Response{StatusCode: 200, Body: json.RawMessage(`not json`)}, nil
		})
	assert.ErrorIs(t, err, errDecodeGatewayInfo)
}

func TestUserProfile_StripsBearerPrefix(t *testing.T) {
	reg, sess := newInstalled(t)
	ri := rest.NewInterceptor(reg, sess, nil, nil)

	resolver := func(ctx context.Context, req *api.RouteRequest) (*api.ResolvedRequest, error) {
		return &api.ResolvedRequest{
			URL: "https://example.test/api/v9" + req.Route,
			HeaderLines: []string{
				"Authorization: Bearer xyz",
				"User-Agent: test",
			},
		}, nil
	}

	form, err := ri.Resolve(context.Background(),
		&api.RouteRequest{Method: http.MethodGet, Route: "/users/42/"}, resolver)
	require.NoError(t, err)

	require.NotNil(t, form.Headers)
	assert.Equal(t, "xyz", form.Headers.Get("Authorization"))
	assert.Equal(t, "test", form.Headers.Get("User-Agent"))
}

func TestUserProfile_NonBearerAuthorizationUntouched(t *testing.T) {
	reg, sess := newInstalled(t)
	ri := rest.NewInterceptor(reg, sess, nil, nil)

	form, err := ri.Resolve(context.Background(),
		&api.RouteRequest{Method: http.MethodGet, Route: "/users/42/"},
		func(ctx context.Context, req *api.RouteRequest) (*api.ResolvedRequest, error) {
			return &api.ResolvedRequest{HeaderLines: []string{"Authorization: Bot abc"}}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "Bot abc", form.Headers.Get("Authorization"))
}

func TestUserProfile_PrefixMatchCoversSubpaths(t *testing.T) {
	// The template "/users/{:id}/" is prefix-matched at its placeholder, so
	// longer user paths get the same authorization rewrite.
	reg, sess := newInstalled(t)
	ri := rest.NewInterceptor(reg, sess, nil, nil)

	form, err := ri.Resolve(context.Background(),
		&api.RouteRequest{Method: http.MethodGet, Route: "/users/42/guilds"},
		func(ctx context.Context, req *api.RouteRequest) (*api.ResolvedRequest, error) {
			return &api.ResolvedRequest{HeaderLines: []string{"Authorization: Bearer xyz"}}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "xyz", form.Headers.Get("Authorization"))
}

func TestNewSession(t *testing.T) {
	s := NewSession("tok")
	assert.Equal(t, "tok", s.Token)
	assert.Equal(t, Capabilities, s.Capabilities)
	assert.Equal(t, DefaultUserAgent, s.UserAgent)
	assert.Equal(t, "Chrome", s.Properties.Browser)
}
