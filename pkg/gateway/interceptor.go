// Package gateway splices the patch registry into the event-stream
// transport. The transport exposes two extension points per connection
// (outbound send, inbound deliver); the interceptor wraps both and
// consults the registry at each frame.
package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/calyptra/gatepatch/pkg/api"
	"github.com/calyptra/gatepatch/pkg/logging"
	"github.com/calyptra/gatepatch/pkg/patch"
)

// SendFunc is the outbound send path of a gateway connection.
type SendFunc func(ctx context.Context, f *api.Frame) error

// DeliverFunc is the inbound delivery path handing a frame to downstream
// consumers. Errors from patch callbacks propagate to the transport's
// read loop unmodified.
type DeliverFunc func(f *api.Frame) error

// Interceptor applies packet and event patches at the gateway frame
// boundary. It owns no connection state; the transport's lifecycle
// (reconnect, heartbeat, sharding) stays with the transport.
type Interceptor struct {
	reg     *patch.Registry
	session *api.Session
	logger  *slog.Logger
	emitter *logging.Emitter // nil means no event logging
}

func NewInterceptor(reg *patch.Registry, session *api.Session, logger *slog.Logger, emitter *logging.Emitter) *Interceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interceptor{
		reg:     reg,
		session: session,
		logger:  logger.With("component", "gateway"),
		emitter: emitter,
	}
}

// Outbound applies the opcode's packet patch to a frame about to be sent.
// Frames with no registered patch pass through with their payload bytes
// untouched.
func (i *Interceptor) Outbound(f *api.Frame) (*api.Frame, error) {
	if f == nil {
		return nil, nil
	}
	p, ok := i.reg.Packet(f.Op)
	if !ok || p.Outbound == nil {
		return f, nil
	}

	payload, err := decodeFrame(f)
	if err != nil {
		return nil, err
	}
	patched, err := p.Outbound(i.session, payload)
	if err != nil {
		return nil, err
	}
	out, err := encodeFrame(patched)
	if err != nil {
		return nil, err
	}

	i.logger.Debug("outbound frame patched", "op", f.Op.String())
	if i.emitter != nil {
		_ = i.emitter.Emit(logging.EventFramePatch,
			fmt.Sprintf("outbound %s frame patched", f.Op),
			f.Op.String(),
			nil,
			&logging.FramePatchData{
				Direction: "outbound",
				Op:        int(f.Op),
				OpName:    f.Op.String(),
			})
	}
	return out, nil
}

// Inbound applies patches to a frame before it reaches downstream
// consumers. Non-dispatch frames pass straight through. Dispatch frames
// get the opcode's packet-level inbound patch over the full payload
// first, then the event-level patch (selected by the possibly renamed
// event) over the inner data. A packet patch that rewrites the event name
// changes which event patch fires.
func (i *Interceptor) Inbound(f *api.Frame) (*api.Frame, error) {
	if f == nil || f.Op != api.OpDispatch {
		return f, nil
	}

	p, pok := i.reg.Packet(f.Op)
	hasPacketHook := pok && p.Inbound != nil
	if !hasPacketHook {
		if ep, ok := i.reg.Event(f.T); !ok || ep.Inbound == nil {
			return f, nil
		}
	}

	payload, err := decodeFrame(f)
	if err != nil {
		return nil, err
	}

	if hasPacketHook {
		payload, err = p.Inbound(i.session, payload)
		if err != nil {
			return nil, err
		}
		if i.emitter != nil {
			_ = i.emitter.Emit(logging.EventFramePatch,
				fmt.Sprintf("inbound dispatch %s patched", f.T),
				f.Op.String(),
				nil,
				&logging.FramePatchData{
					Direction: "inbound",
					Op:        int(f.Op),
					OpName:    f.Op.String(),
					Event:     f.T,
				})
		}
	}

	name, _ := payload["t"].(string)
	if ep, ok := i.reg.Event(name); ok && ep.Inbound != nil {
		data, _ := payload["d"].(map[string]any)
		patched, err := ep.Inbound(i.session, data)
		if err != nil {
			return nil, err
		}
		payload["d"] = patched

		i.logger.Debug("inbound event patched", "event", name)
		if i.emitter != nil {
			ed := &logging.EventPatchData{Event: name}
			if name != f.T {
				ed.RenamedFrom = f.T
			}
			_ = i.emitter.Emit(logging.EventEventPatch,
				fmt.Sprintf("inbound event %s patched", name),
				name, nil, ed)
		}
	}

	return encodeFrame(payload)
}

// WrapSend returns a SendFunc that patches outbound frames before
// forwarding them to next.
func (i *Interceptor) WrapSend(next SendFunc) SendFunc {
	return func(ctx context.Context, f *api.Frame) error {
		patched, err := i.Outbound(f)
		if err != nil {
			return err
		}
		return next(ctx, patched)
	}
}

// WrapDeliver returns a DeliverFunc that patches inbound frames before
// handing them to next.
func (i *Interceptor) WrapDeliver(next DeliverFunc) DeliverFunc {
	return func(f *api.Frame) error {
		patched, err := i.Inbound(f)
		if err != nil {
			return err
		}
		return next(patched)
	}
}
