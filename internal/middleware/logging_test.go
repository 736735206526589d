package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observe подменяет логгер мидлварей на наблюдаемый и возвращает записи.
func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core).Sugar())
	t.Cleanup(func() { SetLogger(zap.NewNop().Sugar()) })
	return logs
}

// waitRequest ждёт запись "request": сервер логирует после выхода из хендлера.
func waitRequest(t *testing.T, logs *observer.ObservedLogs) map[string]any {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if entries := logs.FilterMessage("request").All(); len(entries) > 0 {
			return entries[0].ContextMap()
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("no request entry logged")
	return nil
}

// Тест: статус и размер ответа проксируются и попадают в лог
func TestWithLogging_StatusAndSize(t *testing.T) {
	logs := observe(t)

	h := WithLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("AlreadyPaired"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/user/pair", nil))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status passthrough failed: got %d", rr.Code)
	}
	if rr.Body.String() != "AlreadyPaired" {
		t.Fatalf("body passthrough failed: %q", rr.Body.String())
	}
	fields := waitRequest(t, logs)
	if fields["status"] != int64(http.StatusConflict) {
		t.Fatalf("logged status = %v", fields["status"])
	}
	if fields["size"] != int64(len("AlreadyPaired")) {
		t.Fatalf("logged size = %v", fields["size"])
	}
	if fields["uri"] != "/user/pair" || fields["method"] != http.MethodPost {
		t.Fatalf("logged request = %v %v", fields["method"], fields["uri"])
	}
}

// Тест: без явного WriteHeader в лог пишется 200
func TestWithLogging_DefaultStatus(t *testing.T) {
	logs := observe(t)

	h := WithLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := waitRequest(t, logs)["status"]; got != int64(http.StatusOK) {
		t.Fatalf("logged status = %v", got)
	}
}

// Тест: обёртка над writer без Hijacker отказывает в Hijack
func TestWithLogging_HijackUnsupported(t *testing.T) {
	observe(t)

	var hijackErr error
	h := WithLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("logging writer must implement http.Hijacker")
			return
		}
		_, _, hijackErr = hj.Hijack()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/hub", nil))

	if hijackErr == nil {
		t.Fatal("expected hijack error over a recorder")
	}
}

// Тест: апгрейд /hub до websocket проходит через мидлварь, в лог пишется 101
func TestWithLogging_WebsocketUpgrade(t *testing.T) {
	logs := observe(t)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(WithLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		_, msg, err := ws.ReadMessage()
		if err != nil {
			return
		}
		_ = ws.WriteMessage(websocket.TextMessage, msg)
	})))
	defer srv.Close()

	ws, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/hub", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("handshake status = %d", resp.StatusCode)
	}
	if err := ws.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, msg, err := ws.ReadMessage()
	if err != nil || string(msg) != "ping" {
		t.Fatalf("echo = %q, %v", msg, err)
	}

	fields := waitRequest(t, logs)
	if fields["status"] != int64(http.StatusSwitchingProtocols) {
		t.Fatalf("logged status = %v", fields["status"])
	}
	if fields["uri"] != "/hub" {
		t.Fatalf("logged uri = %v", fields["uri"])
	}
}
