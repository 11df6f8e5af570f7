package gateway

import (
	"github.com/calyptra/gatepatch/internal/errx"
	"github.com/calyptra/gatepatch/pkg/api"
	"github.com/calyptra/gatepatch/pkg/logging"
)

// Shard is one gateway connection the transport manages. Both wrap
// methods replace the current path with a middleware-wrapped one; the
// transport must apply them to whatever connection it is currently
// holding, including replacements created on a reshard.
type Shard interface {
	ID() int
	WrapOutbound(func(SendFunc) SendFunc)
	WrapInbound(func(DeliverFunc) DeliverFunc)
}

// ShardSource notifies subscribers as gateway connections are created.
// Implementations must invoke the callback for connections that already
// exist at subscription time and for every connection created later, so
// interception coverage survives a reshard.
type ShardSource interface {
	OnShardCreated(fn func(Shard))
}

// Attach subscribes the interceptor to the transport's shard lifecycle
// and wraps every connection's send and deliver paths. A transport that
// exposes no shard notifications cannot be intercepted; that is fatal at
// attach time since running unpatched would violate the wire contract.
func (i *Interceptor) Attach(src ShardSource) error {
	if src == nil {
		return errx.With(api.ErrHookPointMissing, ": transport exposes no shard notifications")
	}
	src.OnShardCreated(func(s Shard) {
		s.WrapOutbound(i.WrapSend)
		s.WrapInbound(i.WrapDeliver)
		i.logger.Debug("interceptor attached", "shard", s.ID())
		if i.emitter != nil {
			_ = i.emitter.Emit(logging.EventShardAttach,
				"interceptor attached to shard",
				"", nil,
				&logging.ShardAttachData{ShardID: s.ID()})
		}
	})
	return nil
}
