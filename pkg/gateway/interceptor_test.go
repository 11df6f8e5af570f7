package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyptra/gatepatch/pkg/api"
	"github.com/calyptra/gatepatch/pkg/patch"
)

func newTestInterceptor(reg *patch.Registry) *Interceptor {
	return NewInterceptor(reg, &api.Session{Token: "t"}, nil, nil)
}

func TestOutbound_PassthroughKeepsPayloadBytes(t *testing.T) {
	i := newTestInterceptor(patch.NewRegistry())

	// Unusual key order and spacing must survive when no patch applies.
	f := &api.Frame{Op: api.OpHeartbeat, D: json.RawMessage(`{"z": 1, "a": 2}`)}
	out, err := i.Outbound(f)
	require.NoError(t, err)
	assert.Same(t, f, out)
	assert.Equal(t, json.RawMessage(`{"z": 1, "a": 2}`), out.D)
}

func TestOutbound_AppliesPacketPatch(t *testing.T) {
	reg := patch.NewRegistry()
	reg.InstallPacket(api.OpIdentify, patch.Packet{
		Outbound: func(s *api.Session, p map[string]any) (map[string]any, error) {
			d := p["d"].(map[string]any)
			d["intents"] = 0
			delete(d, "shard")
			return p, nil
		},
	})
	i := newTestInterceptor(reg)

	f := &api.Frame{Op: api.OpIdentify, D: json.RawMessage(`{"token":"x","shard":[0,4]}`)}
	out, err := i.Outbound(f)
	require.NoError(t, err)

	var d map[string]any
	require.NoError(t, json.Unmarshal(out.D, &d))
	assert.Equal(t, "x", d["token"])
	assert.NotContains(t, d, "shard")
	assert.Equal(t, float64(0), d["intents"])
}

func TestOutbound_PatchErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	reg := patch.NewRegistry()
	reg.InstallPacket(api.OpIdentify, patch.Packet{
		Outbound: func(s *api.Session, p map[string]any) (map[string]any, error) {
			return nil, boom
		},
	})
	i := newTestInterceptor(reg)

	_, err := i.Outbound(&api.Frame{Op: api.OpIdentify, D: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, boom)
}

func TestOutbound_MalformedPayload(t *testing.T) {
	reg := patch.NewRegistry()
	reg.InstallPacket(api.OpIdentify, patch.Packet{
		Outbound: func(s *api.Session, p map[string]any) (map[string]any, error) { return p, nil },
	})
	i := newTestInterceptor(reg)

	_, err := i.Outbound(&api.Frame{Op: api.OpIdentify, D: json.RawMessage(`{not json`)})
	assert.ErrorIs(t, err, api.ErrFrameDecode)
}

func TestInbound_NonDispatchPassthrough(t *testing.T) {
	reg := patch.NewRegistry()
	reg.InstallEvent("READY", patch.Event{
		Inbound: func(s *api.Session, d map[string]any) (map[string]any, error) {
			t.Fatal("event patch fired on non-dispatch frame")
			return d, nil
		},
	})
	i := newTestInterceptor(reg)

	f := &api.Frame{Op: api.OpHello, D: json.RawMessage(`{"heartbeat_interval":41250}`)}
	out, err := i.Inbound(f)
	require.NoError(t, err)
	assert.Same(t, f, out)
}

func TestInbound_DispatchWithoutHooksPassthrough(t *testing.T) {
	i := newTestInterceptor(patch.NewRegistry())

	f := &api.Frame{Op: api.OpDispatch, T: "MESSAGE_CREATE", S: 7, D: json.RawMessage(`{"id": "1"}`)}
	out, err := i.Inbound(f)
	require.NoError(t, err)
	assert.Same(t, f, out)
	assert.Equal(t, json.RawMessage(`{"id": "1"}`), out.D)
}

func TestInbound_EventPatchAppliesToInnerData(t *testing.T) {
	reg := patch.NewRegistry()
	reg.InstallEvent("READY", patch.Event{
		Inbound: func(s *api.Session, d map[string]any) (map[string]any, error) {
			d["application"] = map[string]any{"id": "0", "flags": 0}
			return d, nil
		},
	})
	i := newTestInterceptor(reg)

	f := &api.Frame{Op: api.OpDispatch, T: "READY", S: 1, D: json.RawMessage(`{"v":9}`)}
	out, err := i.Inbound(f)
	require.NoError(t, err)

	assert.Equal(t, "READY", out.T)
	assert.Equal(t, int64(1), out.S)
	var d map[string]any
	require.NoError(t, json.Unmarshal(out.D, &d))
	assert.Equal(t, float64(9), d["v"])
	assert.Contains(t, d, "application")
}

func TestInbound_PacketPatchRunsBeforeEventPatch(t *testing.T) {
	var order []string
	reg := patch.NewRegistry()
	reg.InstallPacket(api.OpDispatch, patch.Packet{
		Inbound: func(s *api.Session, p map[string]any) (map[string]any, error) {
			order = append(order, "packet")
			return p, nil
		},
	})
	reg.InstallEvent("READY", patch.Event{
		Inbound: func(s *api.Session, d map[string]any) (map[string]any, error) {
			order = append(order, "event")
			return d, nil
		},
	})
	i := newTestInterceptor(reg)

	_, err := i.Inbound(&api.Frame{Op: api.OpDispatch, T: "READY", D: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, []string{"packet", "event"}, order)
}

func TestInbound_EventRenameReselectsEventPatch(t *testing.T) {
	reg := patch.NewRegistry()
	reg.InstallPacket(api.OpDispatch, patch.Packet{
		Inbound: func(s *api.Session, p map[string]any) (map[string]any, error) {
			p["t"] = "RENAMED"
			return p, nil
		},
	})
	var sawOriginal, sawRenamed bool
	reg.InstallEvent("ORIGINAL", patch.Event{
		Inbound: func(s *api.Session, d map[string]any) (map[string]any, error) {
			sawOriginal = true
			return d, nil
		},
	})
	reg.InstallEvent("RENAMED", patch.Event{
		Inbound: func(s *api.Session, d map[string]any) (map[string]any, error) {
			sawRenamed = true
			return d, nil
		},
	})
	i := newTestInterceptor(reg)

	out, err := i.Inbound(&api.Frame{Op: api.OpDispatch, T: "ORIGINAL", D: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.False(t, sawOriginal, "patch for the pre-rename event must not fire")
	assert.True(t, sawRenamed)
	assert.Equal(t, "RENAMED", out.T)
}

func TestInbound_EventPatchErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	reg := patch.NewRegistry()
	reg.InstallEvent("READY", patch.Event{
		Inbound: func(s *api.Session, d map[string]any) (map[string]any, error) {
			return nil, boom
		},
	})
	i := newTestInterceptor(reg)

	_, err := i.Inbound(&api.Frame{Op: api.OpDispatch, T: "READY", D: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, boom)
}

func TestWrapSendAndDeliver(t *testing.T) {
	reg := patch.NewRegistry()
	reg.InstallPacket(api.OpHeartbeat, patch.Packet{
		Outbound: func(s *api.Session, p map[string]any) (map[string]any, error) {
			p["d"] = 42
			return p, nil
		},
	})
	i := newTestInterceptor(reg)

	var sent *api.Frame
	send := i.WrapSend(func(ctx context.Context, f *api.Frame) error {
		sent = f
		return nil
	})
	require.NoError(t, send(context.Background(), &api.Frame{Op: api.OpHeartbeat, D: json.RawMessage(`null`)}))
	require.NotNil(t, sent)
	assert.Equal(t, json.RawMessage(`42`), sent.D)

	var delivered *api.Frame
	deliver := i.WrapDeliver(func(f *api.Frame) error {
		delivered = f
		return nil
	})
	f := &api.Frame{Op: api.OpDispatch, T: "MESSAGE_CREATE", D: json.RawMessage(`{}`)}
	require.NoError(t, deliver(f))
	assert.Same(t, f, delivered)
}
