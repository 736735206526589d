package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"KinkLink/internal/model"
	"KinkLink/internal/repo"
	"KinkLink/internal/service"
	"KinkLink/internal/wire"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	hub *Hub
	srv *httptest.Server
}

func newEnv(t *testing.T, uids ...string) *env {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repo.InitDB("file:hub_" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	users := repo.NewUserRepository(db)
	for _, uid := range uids {
		_, err := users.CreateUser(context.Background(), &model.User{UID: uid}, &model.Auth{HashedSecret: "x"})
		require.NoError(t, err)
	}
	svc := service.NewKinksterService(service.Deps{
		Users:    users,
		Pairs:    repo.NewPairRepository(db),
		Requests: repo.NewRequestRepository(db),
		Perms:    repo.NewPermissionRepository(db),
		States:   repo.NewStateRepository(db),
	})
	h := New(svc, nil, Options{})

	upgrader := websocket.Upgrader{Subprotocols: []string{wire.SubprotocolCBOR}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = h.Serve(ws, r.URL.Query().Get("uid"), r.URL.Query().Get("identity"))
	}))
	t.Cleanup(func() {
		h.Close()
		srv.Close()
		_ = sqlDB.Close()
	})
	return &env{hub: h, srv: srv}
}

// client — test side of a hub socket.
type client struct {
	t      *testing.T
	ws     *websocket.Conn
	codec  wire.Codec
	id     uint64
	events []wire.Frame
}

func (e *env) dial(t *testing.T, uid string, subprotocols ...string) *client {
	t.Helper()
	d := websocket.Dialer{Subprotocols: subprotocols, HandshakeTimeout: 2 * time.Second}
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/?uid=" + uid + "&identity=ident-" + uid
	ws, _, err := d.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	codec, err := wire.ForSubprotocol(ws.Subprotocol())
	require.NoError(t, err)
	c := &client{t: t, ws: ws, codec: codec}
	// the first result proves the connection is registered
	require.Equal(t, string(service.CodeSuccess), c.call(MethodHealthCheck, nil).Code)
	return c
}

func (c *client) read() wire.Frame {
	c.t.Helper()
	require.NoError(c.t, c.ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	typ, msg, err := c.ws.ReadMessage()
	require.NoError(c.t, err)
	if c.codec.Binary() {
		require.Equal(c.t, websocket.BinaryMessage, typ)
	}
	f, err := wire.Decode(c.codec, msg)
	require.NoError(c.t, err)
	return f
}

func (c *client) call(method string, args any) wire.Frame {
	c.t.Helper()
	c.id++
	msg, err := wire.Encode(c.codec, wire.Frame{Kind: wire.KindCall, ID: c.id, Method: method}, args)
	require.NoError(c.t, err)
	typ := websocket.TextMessage
	if c.codec.Binary() {
		typ = websocket.BinaryMessage
	}
	require.NoError(c.t, c.ws.WriteMessage(typ, msg))
	for {
		f := c.read()
		if f.Kind == wire.KindResult && f.ID == c.id {
			return f
		}
		c.events = append(c.events, f)
	}
}

// event returns the next event called name, reading until it arrives.
func (c *client) event(name string) wire.Frame {
	c.t.Helper()
	for i, f := range c.events {
		if f.Method == name {
			c.events = append(c.events[:i], c.events[i+1:]...)
			return f
		}
	}
	for {
		f := c.read()
		if f.Kind == wire.KindEvent && f.Method == name {
			return f
		}
		c.events = append(c.events, f)
	}
}

func TestRoutesCoverRPCSurface(t *testing.T) {
	e := newEnv(t)
	assert.ElementsMatch(t, []string{
		"SendPairingRequest", "CancelPairingRequest", "AcceptPairingRequest", "RejectPairingRequest",
		"RemovePair", "GetActiveRequests", "SendCollarRequest", "AcceptCollarRequest",
		"RejectCollarRequest", "CancelCollarRequest", "ChangeOwnGlobalPermission",
		"ChangeOtherGlobalPermission", "ChangeOwnPairPermission", "ChangeOtherPairPermission",
		"ChangeEditAccess", "BulkChangeGlobal", "BulkChangePair", "PushGagState",
		"PushRestrictionState", "PushRestraintState", "PushCollarState", "PushOtherGagState",
		"PushOtherRestrictionState", "PushOtherRestraintState", "PushOtherCollarState",
		"ChangeOtherHardcoreAttribute", "AttributeExpired", "GetOnlinePairs", "GetPairedClients",
		"GetConnectionSnapshot", "HealthCheck",
	}, e.hub.Methods())
}

func TestHub_PairingOverSocket(t *testing.T) {
	e := newEnv(t, "A", "B")
	a := e.dial(t, "A")
	b := e.dial(t, "B")
	assert.Equal(t, 2, e.hub.Online())

	res := a.call(MethodSendPairingRequest, PairRequestArgs{UID: "B", Message: "hi"})
	require.Equal(t, string(service.CodeSuccess), res.Code)

	var req model.PairRequest
	require.NoError(t, wire.DecodeData(b.codec, b.event(service.EventAddPairRequest), &req))
	assert.Equal(t, "A", req.FromUID)
	assert.Equal(t, "hi", req.Message)

	res = b.call(MethodAcceptPairingRequest, UIDArgs{UID: "A"})
	require.Equal(t, string(service.CodeSuccess), res.Code)

	var added service.PairAdded
	require.NoError(t, wire.DecodeData(a.codec, a.event(service.EventAddPair), &added))
	assert.Equal(t, "B", added.UID)
	var online service.PairPresence
	require.NoError(t, wire.DecodeData(a.codec, a.event(service.EventPairOnline), &online))
	assert.Equal(t, service.PairPresence{UID: "B", Identity: "ident-B"}, online)

	res = a.call(MethodGetOnlinePairs, nil)
	require.Equal(t, string(service.CodeSuccess), res.Code)
	var pairs []service.PairPresence
	require.NoError(t, wire.DecodeData(a.codec, res, &pairs))
	assert.Equal(t, []service.PairPresence{{UID: "B", Identity: "ident-B"}}, pairs)

	// B drops: A sees it go offline
	require.NoError(t, b.ws.Close())
	require.NoError(t, wire.DecodeData(a.codec, a.event(service.EventPairOffline), &online))
	assert.Equal(t, "B", online.UID)
}

func TestHub_ResultCodes(t *testing.T) {
	e := newEnv(t, "A", "B")
	a := e.dial(t, "A")

	assert.Equal(t, string(service.CodeBadUpdateKind), a.call("NoSuchMethod", nil).Code)
	assert.Equal(t, string(service.CodeNullData), a.call(MethodRemovePair, nil).Code)
	assert.Equal(t, string(service.CodeIncorrectDataType), a.call(MethodRemovePair, []int{1, 2}).Code)
	assert.Equal(t, string(service.CodeNotPaired), a.call(MethodPushOtherGagState, SlotArgs{
		UID:    "B",
		Layer:  0,
		Update: service.SlotUpdate{Kind: model.UpdateApplied, Item: "ball"},
	}).Code)
	assert.Equal(t, string(service.CodeUnknownField), a.call(MethodChangeOwnGlobalPermission, FieldArgs{Field: "nope", Value: true}).Code)

	res := a.call(MethodPushGagState, SlotArgs{Layer: 0, Update: service.SlotUpdate{Kind: model.UpdateApplied, Item: "ball"}})
	require.Equal(t, string(service.CodeSuccess), res.Code)
	var g model.ActiveGag
	require.NoError(t, wire.DecodeData(a.codec, res, &g))
	assert.Equal(t, "ball", g.Item)
	assert.Equal(t, "A", g.Enabler)
}

func TestHub_CBOR(t *testing.T) {
	e := newEnv(t, "A")
	a := e.dial(t, "A", wire.SubprotocolCBOR)
	require.True(t, a.codec.Binary())

	res := a.call(MethodChangeOwnGlobalPermission, FieldArgs{Field: "allowed_garbler_channels", Value: 5})
	require.Equal(t, string(service.CodeSuccess), res.Code)
	var g model.GlobalPermissions
	require.NoError(t, wire.DecodeData(a.codec, res, &g))
	assert.Equal(t, 5, g.AllowedGarblerChannels)

	var changed service.PermChanged
	require.NoError(t, wire.DecodeData(a.codec, a.event(service.EventGlobalPermChanged), &changed))
	assert.Equal(t, "allowed_garbler_channels", changed.Field)
	assert.EqualValues(t, 5, changed.Value)
}

func TestHub_NewConnectionReplacesOld(t *testing.T) {
	e := newEnv(t, "A")
	first := e.dial(t, "A")
	second := e.dial(t, "A")
	assert.Equal(t, 1, e.hub.Online())

	require.NoError(t, first.ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := first.ws.ReadMessage()
	require.Error(t, err)

	// the replaced socket closing does not mark A offline
	assert.Equal(t, string(service.CodeSuccess), second.call(MethodHealthCheck, nil).Code)
	assert.Equal(t, 1, e.hub.Online())
}

func TestConn_SlowConsumerIsClosed(t *testing.T) {
	e := newEnv(t)
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(e.srv.URL, "http")+"/?uid=X", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	c := newConn(ws, wire.JSON{}, "X", "", 1)
	assert.True(t, c.enqueue([]byte("1")))
	assert.False(t, c.enqueue([]byte("2")))
	select {
	case <-c.Done():
	default:
		t.Fatal("connection not closed after overflow")
	}
	assert.ErrorIs(t, c.send(wire.Frame{Kind: wire.KindEvent, Method: "x"}, nil), errQueueClosed)
}

func TestHub_CloseRefusesNewWork(t *testing.T) {
	e := newEnv(t, "A")
	a := e.dial(t, "A")

	done := make(chan struct{})
	go func() {
		e.hub.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Close did not return with a live connection")
	}
	assert.Eventually(t, func() bool { return e.hub.Online() == 0 }, 3*time.Second, 10*time.Millisecond)

	// the old socket is shut: a call gets no result
	msg, err := wire.Encode(a.codec, wire.Frame{Kind: wire.KindCall, ID: 99, Method: MethodHealthCheck}, nil)
	require.NoError(t, err)
	_ = a.ws.WriteMessage(websocket.TextMessage, msg)
	require.NoError(t, a.ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err = a.ws.ReadMessage()
	assert.Error(t, err)

	// a fresh socket is upgraded and then dropped without registering
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/?uid=A&identity=ident-A"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err = ws.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, e.hub.Online())
}
