package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"KinkLink/internal/wire"

	"github.com/gorilla/websocket"
)

// IdentityHeader — заголовок с игровой идентичностью клиента.
const IdentityHeader = "X-Kinkster-Identity"

// CodeSuccess — код успешного результата вызова.
const CodeSuccess = "Success"

// ErrHubClosed возвращается вызовам, не дождавшимся результата до закрытия сокета.
var ErrHubClosed = errors.New("hub connection closed")

// CallError — результат вызова с кодом, отличным от Success.
type CallError struct {
	Method string
	Code   string
}

func (e *CallError) Error() string { return e.Method + ": " + e.Code }

// HubClient — клиентская сторона сокета /hub. Один читатель раздаёт
// результаты ожидающим вызовам, события уходят в Events.
type HubClient struct {
	ws    *websocket.Conn
	codec wire.Codec

	writeMu sync.Mutex
	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan wire.Frame
	events  chan wire.Frame
	done    chan struct{}
	err     error
}

// DialHub подключается к хабу с токеном и идентичностью. cbor выбирает
// бинарный кодек.
func DialHub(ctx context.Context, url, token, identity string, cbor bool) (*HubClient, error) {
	d := websocket.Dialer{Proxy: http.ProxyFromEnvironment}
	if cbor {
		d.Subprotocols = []string{wire.SubprotocolCBOR}
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	h.Set(IdentityHeader, identity)
	ws, resp, err := d.DialContext(ctx, url, h)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial hub: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial hub: %w", err)
	}
	codec, err := wire.ForSubprotocol(ws.Subprotocol())
	if err != nil {
		_ = ws.Close()
		return nil, err
	}
	c := &HubClient{
		ws:      ws,
		codec:   codec,
		pending: make(map[uint64]chan wire.Frame),
		events:  make(chan wire.Frame, 64),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Codec возвращает согласованный кодек.
func (c *HubClient) Codec() wire.Codec { return c.codec }

// Events — поток push-событий. Закрывается вместе с сокетом.
func (c *HubClient) Events() <-chan wire.Frame { return c.events }

// Done закрывается, когда сокет перестал читаться.
func (c *HubClient) Done() <-chan struct{} { return c.done }

// Err — причина закрытия после Done.
func (c *HubClient) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close закрывает сокет.
func (c *HubClient) Close() error {
	c.writeMu.Lock()
	_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.ws.Close()
}

// Call отправляет вызов и ждёт результат. Код, отличный от Success,
// возвращается как *CallError вместе с кадром.
func (c *HubClient) Call(ctx context.Context, method string, args any) (wire.Frame, error) {
	ch := make(chan wire.Frame, 1)
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return wire.Frame{}, ErrHubClosed
	}
	c.nextID++
	id := c.nextID
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	msg, err := wire.Encode(c.codec, wire.Frame{Kind: wire.KindCall, ID: id, Method: method}, args)
	if err != nil {
		return wire.Frame{}, err
	}
	typ := websocket.TextMessage
	if c.codec.Binary() {
		typ = websocket.BinaryMessage
	}
	c.writeMu.Lock()
	err = c.ws.WriteMessage(typ, msg)
	c.writeMu.Unlock()
	if err != nil {
		return wire.Frame{}, err
	}

	select {
	case <-ctx.Done():
		return wire.Frame{}, ctx.Err()
	case <-c.done:
		// результат мог прийти перед самым закрытием сокета
		select {
		case f := <-ch:
			return result(method, f)
		default:
			return wire.Frame{}, ErrHubClosed
		}
	case f := <-ch:
		return result(method, f)
	}
}

func result(method string, f wire.Frame) (wire.Frame, error) {
	if f.Code != CodeSuccess {
		return f, &CallError{Method: method, Code: f.Code}
	}
	return f, nil
}

func (c *HubClient) readLoop() {
	defer close(c.events)
	defer close(c.done)
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			return
		}
		f, err := wire.Decode(c.codec, msg)
		if err != nil {
			continue
		}
		switch f.Kind {
		case wire.KindResult:
			c.mu.Lock()
			ch := c.pending[f.ID]
			c.mu.Unlock()
			if ch != nil {
				ch <- f
			}
		case wire.KindEvent:
			select {
			case c.events <- f:
			default:
				// читатель не успевает: событие теряется, результаты важнее
			}
		}
	}
}
