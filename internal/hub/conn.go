package hub

import (
	"sync"
	"time"

	"KinkLink/internal/wire"

	"github.com/gorilla/websocket"
)

// QueueSize — outbound frames buffered per connection before it is
// considered a slow consumer and closed.
const QueueSize = 256

// Conn is one authenticated hub socket. Frames are written by a single
// writer goroutine in enqueue order.
type Conn struct {
	UID      string
	Identity string

	ws    *websocket.Conn
	codec wire.Codec
	out   chan []byte
	done  chan struct{}
	once  sync.Once
}

func newConn(ws *websocket.Conn, codec wire.Codec, uid, identity string, queue int) *Conn {
	if queue <= 0 {
		queue = QueueSize
	}
	return &Conn{
		UID:      uid,
		Identity: identity,
		ws:       ws,
		codec:    codec,
		out:      make(chan []byte, queue),
		done:     make(chan struct{}),
	}
}

// Done is closed once the connection is shut down.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Close stops the writer and closes the socket. Safe to call repeatedly.
func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// enqueue hands msg to the writer without blocking. It reports false when
// the connection is gone or its queue is full; a full queue closes it.
func (c *Conn) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- msg:
		return true
	default:
		c.Close()
		return false
	}
}

// send encodes f with the connection codec and enqueues it.
func (c *Conn) send(f wire.Frame, payload any) error {
	msg, err := wire.Encode(c.codec, f, payload)
	if err != nil {
		return err
	}
	if !c.enqueue(msg) {
		return errQueueClosed
	}
	return nil
}

func (c *Conn) messageType() int {
	if c.codec.Binary() {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// writeLoop drains the queue and pings every interval.
func (c *Conn) writeLoop(pingInterval, writeTimeout time.Duration) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return nil
		case msg := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(c.messageType(), msg); err != nil {
				return err
			}
		case <-ticker.C:
			deadline := time.Now().Add(writeTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return err
			}
		}
	}
}
