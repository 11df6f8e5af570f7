// Package transport wires the interception interfaces to concrete
// clients: a websocket-backed gateway connection manager and an
// http-backed REST client. The interception core depends only on the
// interfaces; everything here is replaceable.
package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"nhooyr.io/websocket"

	"github.com/calyptra/gatepatch/internal/errx"
	"github.com/calyptra/gatepatch/pkg/api"
	"github.com/calyptra/gatepatch/pkg/gateway"
)

// Consumer receives inbound frames after interception.
type Consumer func(shardID int, f *api.Frame) error

// GatewayOptions configures the gateway connection manager.
type GatewayOptions struct {
	URL      string
	Shards   int
	Session  *api.Session
	Consumer Consumer
	Logger   *slog.Logger
}

// Gateway manages one or more shard connections and implements
// gateway.ShardSource: subscribers are notified for every connection,
// including replacements created by Reshard, so interception coverage
// never lapses when the shard set is rebuilt.
type Gateway struct {
	opts   GatewayOptions
	logger *slog.Logger

	mu     sync.Mutex
	shards []*GatewayShard
	subs   []func(gateway.Shard)
	closed bool
}

func NewGateway(opts GatewayOptions) *Gateway {
	if opts.Shards <= 0 {
		opts.Shards = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		opts:   opts,
		logger: logger.With("component", "transport"),
	}
}

// OnShardCreated registers a shard-lifecycle subscriber. The callback
// runs immediately for shards that already exist and again for every
// shard created later.
func (g *Gateway) OnShardCreated(fn func(gateway.Shard)) {
	g.mu.Lock()
	g.subs = append(g.subs, fn)
	existing := append([]*GatewayShard(nil), g.shards...)
	g.mu.Unlock()

	for _, s := range existing {
		fn(s)
	}
}

// Connect dials the configured number of shards. Each new shard is
// announced to subscribers before its read loop starts, so the first
// frame already flows through any wrapped paths.
func (g *Gateway) Connect(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrGatewayClosed
	}
	count := g.opts.Shards
	g.mu.Unlock()

	return g.spawn(ctx, count)
}

// Reshard tears down the current shard set and dials a new one.
// Subscribers are re-notified for every replacement shard.
func (g *Gateway) Reshard(ctx context.Context, count int) error {
	if count <= 0 {
		count = 1
	}

	g.mu.Lock()
	old := g.shards
	g.shards = nil
	g.opts.Shards = count
	g.mu.Unlock()

	for _, s := range old {
		s.close()
	}
	g.logger.Info("resharding", "shards", count)
	return g.spawn(ctx, count)
}

// Close shuts down all shards.
func (g *Gateway) Close() error {
	g.mu.Lock()
	g.closed = true
	old := g.shards
	g.shards = nil
	g.mu.Unlock()

	for _, s := range old {
		s.close()
	}
	return nil
}

func (g *Gateway) spawn(ctx context.Context, count int) error {
	for id := 0; id < count; id++ {
		shard, err := g.dialShard(ctx, id, count)
		if err != nil {
			return errx.Wrap(ErrDialGateway, err)
		}

		g.mu.Lock()
		g.shards = append(g.shards, shard)
		subs := append(([]func(gateway.Shard))(nil), g.subs...)
		g.mu.Unlock()

		for _, fn := range subs {
			fn(shard)
		}
		shard.start()
		g.logger.Info("shard connected", "shard", id)
	}
	return nil
}

func (g *Gateway) dialShard(ctx context.Context, id, total int) (*GatewayShard, error) {
	conn, _, err := websocket.Dial(ctx, g.opts.URL, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(maxFrameBytes)

	s := &GatewayShard{
		id:      id,
		total:   total,
		conn:    conn,
		session: g.opts.Session,
		logger:  g.logger.With("shard", id),
		stop:    make(chan struct{}),
	}
	s.send = s.writeFrame
	s.deliver = func(f *api.Frame) error {
		if g.opts.Consumer == nil {
			return nil
		}
		return g.opts.Consumer(id, f)
	}
	return s, nil
}

func encodeWireFrame(f *api.Frame) ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, errx.Wrap(ErrEncodeFrame, err)
	}
	return b, nil
}

func decodeWireFrame(b []byte) (*api.Frame, error) {
	var f api.Frame
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, errx.Wrap(ErrDecodeFrame, err)
	}
	return &f, nil
}
