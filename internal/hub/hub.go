// Package hub keeps one websocket per connected user, routes RPC calls to
// the kinkster service and delivers its push events.
package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"KinkLink/internal/service"
	"KinkLink/internal/wire"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	errQueueClosed = errors.New("hub: connection closed")
	// ErrHubClosed is returned by Serve once Close has run.
	ErrHubClosed = errors.New("hub: closed")
)

// Options tune the socket handling. Zero values get defaults.
type Options struct {
	QueueSize    int
	PingInterval time.Duration
	PongWait     time.Duration
	WriteTimeout time.Duration
	// CallTimeout bounds one service call.
	CallTimeout time.Duration
	// MaxMessageSize limits inbound frames, in bytes.
	MaxMessageSize int64
}

func (o *Options) defaults() {
	if o.QueueSize <= 0 {
		o.QueueSize = QueueSize
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingInterval <= 0 || o.PingInterval >= o.PongWait {
		o.PingInterval = o.PongWait * 9 / 10
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 15 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 1 << 20
	}
}

// Hub — connection registry and RPC router. It implements
// service.Notifier.
type Hub struct {
	svc  *service.KinksterService
	log  *zap.SugaredLogger
	opts Options

	mu     sync.RWMutex
	conns  map[string]*Conn
	closed bool

	routes map[string]handler
	calls  sync.WaitGroup
}

// New builds the hub and registers it as the push sink of svc.
func New(svc *service.KinksterService, log *zap.SugaredLogger, opts Options) *Hub {
	opts.defaults()
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	h := &Hub{
		svc:   svc,
		log:   log,
		opts:  opts,
		conns: make(map[string]*Conn),
	}
	h.routes = h.routeTable()
	svc.SetNotifier(h)
	return h
}

// Notify delivers an event frame to uid if it is connected.
func (h *Hub) Notify(uid, event string, payload any) {
	c := h.lookup(uid)
	if c == nil {
		return
	}
	if err := c.send(wire.Frame{Kind: wire.KindEvent, Method: event}, payload); err != nil {
		h.log.Warnw("push dropped", "uid", uid, "event", event, "error", err)
	}
}

// Online returns the number of registered connections.
func (h *Hub) Online() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) lookup(uid string) *Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.conns[uid]
}

// register makes c the live connection of its UID and returns the one it
// replaced. It fails after Close.
func (h *Hub) register(c *Conn) (*Conn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	prev := h.conns[c.UID]
	h.conns[c.UID] = c
	return prev, nil
}

// startCall counts a new in-flight call unless the hub is closing.
func (h *Hub) startCall() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return false
	}
	h.calls.Add(1)
	return true
}

// unregister removes c if it is still the live connection of its UID.
func (h *Hub) unregister(c *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[c.UID] != c {
		return false
	}
	delete(h.conns, c.UID)
	return true
}

// Serve runs an upgraded socket of uid until it closes. The codec is
// picked from the negotiated subprotocol.
func (h *Hub) Serve(ws *websocket.Conn, uid, identity string) error {
	codec, err := wire.ForSubprotocol(ws.Subprotocol())
	if err != nil {
		_ = ws.Close()
		return err
	}
	c := newConn(ws, codec, uid, identity, h.opts.QueueSize)
	prev, err := h.register(c)
	if err != nil {
		_ = ws.Close()
		return err
	}
	if prev != nil {
		h.log.Infow("replacing connection", "uid", uid)
		prev.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.opts.CallTimeout)
	err = h.svc.OnConnect(ctx, uid, identity)
	cancel()
	if err != nil {
		h.log.Errorw("on connect", "uid", uid, "error", err)
		h.unregister(c)
		c.Close()
		return err
	}
	h.log.Infow("hub connected", "uid", uid, "codec", codec.Name())

	go func() {
		if err := c.writeLoop(h.opts.PingInterval, h.opts.WriteTimeout); err != nil {
			h.log.Debugw("write loop ended", "uid", uid, "error", err)
		}
		c.Close()
	}()

	h.readLoop(c)
	c.Close()

	if h.unregister(c) {
		ctx, cancel := context.WithTimeout(context.Background(), h.opts.CallTimeout)
		if err := h.svc.OnDisconnect(ctx, uid); err != nil {
			h.log.Errorw("on disconnect", "uid", uid, "error", err)
		}
		cancel()
	}
	h.log.Infow("hub disconnected", "uid", uid)
	return nil
}

func (h *Hub) readLoop(c *Conn) {
	c.ws.SetReadLimit(h.opts.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	})
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debugw("read failed", "uid", c.UID, "error", err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(h.opts.PongWait))

		f, err := wire.Decode(c.codec, msg)
		if err != nil || f.Kind != wire.KindCall {
			h.log.Debugw("bad frame", "uid", c.UID, "error", err)
			_ = c.send(wire.Frame{Kind: wire.KindResult, ID: f.ID, Code: string(service.CodeIncorrectDataType)}, nil)
			continue
		}
		if !h.startCall() {
			return
		}
		go func() {
			defer h.calls.Done()
			h.dispatch(c, f)
		}()
	}
}

// dispatch runs one call on a context detached from the socket, so a
// dropped connection never aborts a write half-way.
func (h *Hub) dispatch(c *Conn, f wire.Frame) {
	route, ok := h.routes[f.Method]
	if !ok {
		_ = c.send(wire.Frame{Kind: wire.KindResult, ID: f.ID, Code: string(service.CodeBadUpdateKind)}, nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.CallTimeout)
	defer cancel()

	out, err := route(ctx, c, f)
	code := service.CodeOf(err)
	switch {
	case err == nil:
	case service.IsRejection(err):
		h.log.Debugw("call rejected", "uid", c.UID, "method", f.Method, "code", code, "error", err)
		out = nil
	default:
		h.log.Errorw("call failed", "uid", c.UID, "method", f.Method, "error", err)
		out = nil
	}
	if err := c.send(wire.Frame{Kind: wire.KindResult, ID: f.ID, Code: string(code)}, out); err != nil {
		h.log.Debugw("result dropped", "uid", c.UID, "method", f.Method, "error", err)
	}
}

// Close shuts every connection and waits for in-flight calls. No call or
// connection is accepted afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
	h.calls.Wait()
}
