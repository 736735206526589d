package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"KinkLink/internal/wire"

	"github.com/gorilla/websocket"
)

// fakeHub отвечает на каждый вызов: "Fail" — кодом NotPaired, остальные —
// Success с эхом аргументов; перед результатом шлёт событие "Echoed".
func fakeHub(t *testing.T) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{Subprotocols: []string{wire.SubprotocolCBOR}}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" || r.Header.Get(IdentityHeader) != "me" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		codec, _ := wire.ForSubprotocol(ws.Subprotocol())
		for {
			typ, msg, err := ws.ReadMessage()
			if err != nil {
				return
			}
			f, err := wire.Decode(codec, msg)
			if err != nil {
				return
			}
			ev, _ := wire.Encode(codec, wire.Frame{Kind: wire.KindEvent, Method: "Echoed"}, map[string]string{"method": f.Method})
			_ = ws.WriteMessage(typ, ev)

			res := wire.Frame{Kind: wire.KindResult, ID: f.ID, Code: CodeSuccess, Data: f.Data}
			if f.Method == "Fail" {
				res = wire.Frame{Kind: wire.KindResult, ID: f.ID, Code: "NotPaired"}
			}
			out, _ := codec.Marshal(res)
			_ = ws.WriteMessage(typ, out)
		}
	}))
}

func wsURL(ts *httptest.Server) string { return "ws" + strings.TrimPrefix(ts.URL, "http") }

func TestHubClient_CallAndEvents(t *testing.T) {
	ts := fakeHub(t)
	defer ts.Close()

	for _, cbor := range []bool{false, true} {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		c, err := DialHub(ctx, wsURL(ts), "tok", "me", cbor)
		if err != nil {
			t.Fatalf("dial (cbor=%v): %v", cbor, err)
		}
		if c.Codec().Binary() != cbor {
			t.Fatalf("codec mismatch: %s", c.Codec().Name())
		}

		res, err := c.Call(ctx, "Echo", map[string]string{"uid": "B"})
		if err != nil {
			t.Fatalf("call: %v", err)
		}
		var got map[string]string
		if err := wire.DecodeData(c.Codec(), res, &got); err != nil || got["uid"] != "B" {
			t.Fatalf("echo payload: %v %v", got, err)
		}

		_, err = c.Call(ctx, "Fail", nil)
		var ce *CallError
		if !errors.As(err, &ce) || ce.Code != "NotPaired" {
			t.Fatalf("expected NotPaired CallError, got %v", err)
		}

		select {
		case ev := <-c.Events():
			if ev.Method != "Echoed" {
				t.Fatalf("event: %s", ev.Method)
			}
		case <-ctx.Done():
			t.Fatalf("no event")
		}

		_ = c.Close()
		select {
		case <-c.Done():
		case <-ctx.Done():
			t.Fatalf("read loop did not stop")
		}
		if _, err := c.Call(context.Background(), "Echo", nil); err == nil {
			t.Fatalf("call on closed client must fail")
		}
		cancel()
	}
}

func TestDialHub_Unauthorized(t *testing.T) {
	ts := fakeHub(t)
	defer ts.Close()
	if _, err := DialHub(context.Background(), wsURL(ts), "bad", "me", false); err == nil {
		t.Fatalf("expected dial error")
	}
}
