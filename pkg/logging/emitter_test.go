package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	events []*Event
	closed bool
	err    error
}

func (s *memorySink) Write(e *Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

func TestEmitter_StampsStaticMetadata(t *testing.T) {
	sink := &memorySink{}
	e := NewEmitter(EmitterConfig{RunID: "run-1", Client: "gatepatch"}, sink)

	err := e.Emit(EventRouteRedirect, "redirected", "/gateway/bot",
		[]string{"rest"}, &RouteRedirectData{From: "/gateway/bot", To: "/gateway"})
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, "gatepatch", ev.Client)
	assert.Equal(t, EventRouteRedirect, ev.EventType)
	assert.Equal(t, "redirected", ev.Summary)
	assert.Equal(t, "/gateway/bot", ev.Patch)
	assert.Equal(t, []string{"rest"}, ev.Tags)
	assert.JSONEq(t, `{"from":"/gateway/bot","to":"/gateway"}`, string(ev.Data))
	assert.WithinDuration(t, time.Now().UTC(), ev.Timestamp, 5*time.Second)
}

func TestEmitter_NilDataOmitsPayload(t *testing.T) {
	sink := &memorySink{}
	e := NewEmitter(EmitterConfig{RunID: "r", Client: "c"}, sink)

	require.NoError(t, e.Emit(EventShardAttach, "attached", "", nil, nil))
	require.Len(t, sink.events, 1)
	assert.Nil(t, sink.events[0].Data)
}

func TestEmitter_SinkErrorPropagates(t *testing.T) {
	boom := errors.New("disk full")
	e := NewEmitter(EmitterConfig{}, &memorySink{err: boom})

	err := e.Emit(EventFramePatch, "s", "", nil, nil)
	assert.ErrorIs(t, err, boom)
}

func TestEmitter_FanOutAndClose(t *testing.T) {
	a, b := &memorySink{}, &memorySink{}
	e := NewEmitter(EmitterConfig{}, a, b)

	require.NoError(t, e.Emit(EventHTTPRequest, "GET /gateway", "", nil, nil))
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)

	require.NoError(t, e.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestEmitter_UnmarshalableData(t *testing.T) {
	e := NewEmitter(EmitterConfig{}, &memorySink{})
	err := e.Emit(EventFramePatch, "s", "", nil, func() {})
	assert.ErrorIs(t, err, ErrMarshalData)
}
