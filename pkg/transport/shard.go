package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/calyptra/gatepatch/pkg/api"
	"github.com/calyptra/gatepatch/pkg/gateway"
)

const (
	maxFrameBytes = 8 << 20

	sendTimeout = 30 * time.Second
)

// GatewayShard is one live gateway connection. It implements
// gateway.Shard: the send and deliver paths are plain function values
// that wrap methods replace, so middleware applies to everything the
// shard writes or reads, the identify handshake included.
type GatewayShard struct {
	id      int
	total   int
	conn    *websocket.Conn
	session *api.Session
	logger  *slog.Logger

	mu      sync.Mutex
	send    gateway.SendFunc
	deliver gateway.DeliverFunc
	seq     int64

	stop     chan struct{}
	stopOnce sync.Once
}

func (s *GatewayShard) ID() int { return s.id }

// WrapOutbound replaces the outbound send path.
func (s *GatewayShard) WrapOutbound(mw func(gateway.SendFunc) gateway.SendFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.send = mw(s.send)
}

// WrapInbound replaces the inbound delivery path.
func (s *GatewayShard) WrapInbound(mw func(gateway.DeliverFunc) gateway.DeliverFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliver = mw(s.deliver)
}

// Send pushes a frame through the (possibly wrapped) outbound path.
func (s *GatewayShard) Send(ctx context.Context, f *api.Frame) error {
	s.mu.Lock()
	send := s.send
	s.mu.Unlock()
	return send(ctx, f)
}

func (s *GatewayShard) start() {
	go s.readLoop()
}

func (s *GatewayShard) close() {
	s.stopOnce.Do(func() {
		close(s.stop)
		_ = s.conn.Close(websocket.StatusNormalClosure, "closing")
	})
}

func (s *GatewayShard) readLoop() {
	ctx := context.Background()
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		_, data, err := s.conn.Read(ctx)
		if err != nil {
			select {
			case <-s.stop:
			default:
				s.logger.Warn("gateway read failed", "error", err)
			}
			return
		}

		f, err := decodeWireFrame(data)
		if err != nil {
			s.logger.Warn("dropping undecodable frame", "error", err)
			continue
		}

		if f.S != 0 {
			s.mu.Lock()
			s.seq = f.S
			s.mu.Unlock()
		}

		switch f.Op {
		case api.OpHello:
			s.handleHello(ctx, f)
		case api.OpHeartbeatACK:
			// nothing to do
		default:
			s.mu.Lock()
			deliver := s.deliver
			s.mu.Unlock()
			if err := deliver(f); err != nil {
				s.logger.Warn("inbound delivery failed", "op", f.Op.String(), "event", f.T, "error", err)
			}
		}
	}
}

func (s *GatewayShard) handleHello(ctx context.Context, f *api.Frame) {
	var hello struct {
		HeartbeatInterval int64 `json:"heartbeat_interval"`
	}
	if err := json.Unmarshal(f.D, &hello); err != nil || hello.HeartbeatInterval <= 0 {
		s.logger.Warn("malformed hello payload")
		return
	}
	go s.heartbeatLoop(time.Duration(hello.HeartbeatInterval) * time.Millisecond)

	if err := s.identify(ctx); err != nil {
		s.logger.Error("identify failed", "error", err)
	}
}

// identify sends the connect handshake through the wrapped send path so
// installed packet patches apply to it.
func (s *GatewayShard) identify(ctx context.Context) error {
	d := map[string]any{
		"token":        s.session.Token,
		"capabilities": s.session.Capabilities,
		"properties":   s.session.Properties,
		"presence": map[string]any{
			"status":     "online",
			"since":      0,
			"activities": []any{},
			"afk":        false,
		},
		"shard": []int{s.id, s.total},
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.Send(ctx, &api.Frame{Op: api.OpIdentify, D: raw})
}

func (s *GatewayShard) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			seq := s.seq
			s.mu.Unlock()

			raw, _ := json.Marshal(seq)
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			err := s.Send(ctx, &api.Frame{Op: api.OpHeartbeat, D: raw})
			cancel()
			if err != nil {
				s.logger.Warn("heartbeat failed", "error", err)
				return
			}
		}
	}
}

// writeFrame is the base outbound path: JSON-encode and write to the
// socket.
func (s *GatewayShard) writeFrame(ctx context.Context, f *api.Frame) error {
	b, err := encodeWireFrame(f)
	if err != nil {
		return err
	}
	return s.conn.Write(ctx, websocket.MessageText, b)
}
