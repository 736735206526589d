package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"KinkLink/internal/config"
	"KinkLink/internal/handlers"
	"KinkLink/internal/hub"
	"KinkLink/internal/repo"
	"KinkLink/internal/service"
	"KinkLink/internal/wire"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repo.InitDB("file:handlers_" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	logger := zap.NewNop().Sugar()
	users := repo.NewUserRepository(db)
	kinkster := service.NewKinksterService(service.Deps{
		Users:    users,
		Pairs:    repo.NewPairRepository(db),
		Requests: repo.NewRequestRepository(db),
		Perms:    repo.NewPermissionRepository(db),
		States:   repo.NewStateRepository(db),
		Log:      logger,
	})
	h := hub.New(kinkster, logger, hub.Options{})
	cfg := &config.Config{AuthSecret: "test-secret", TokenTTL: time.Hour}
	router := handlers.NewHandler(service.NewUserService(users, nil), kinkster, h, func(ctx context.Context) error { return repo.Ping(ctx, db) }, logger, cfg).Router
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
		_ = sqlDB.Close()
	})
	return srv
}

func TestServer_RegisterConnectDelete(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/user/register", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var creds struct {
		UID    string `json:"uid"`
		Secret string `json:"secret"`
		Token  string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&creds))
	require.NotEmpty(t, creds.Token)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+creds.Token)

	// без идентичности
	_, bad, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/hub", header)
	require.Error(t, err)
	require.NotNil(t, bad)
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	header.Set(handlers.IdentityHeader, "Alice@Ultros")
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/hub", header)
	require.NoError(t, err)
	defer ws.Close()

	msg, err := wire.Encode(wire.JSON{}, wire.Frame{Kind: wire.KindCall, ID: 1, Method: hub.MethodGetConnectionSnapshot}, nil)
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, msg))
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := ws.ReadMessage()
	require.NoError(t, err)
	f, err := wire.Decode(wire.JSON{}, raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), f.ID)
	assert.Equal(t, string(service.CodeSuccess), f.Code)
	var snap service.ConnectionSnapshot
	require.NoError(t, wire.DecodeData(wire.JSON{}, f, &snap))
	assert.Equal(t, creds.UID, snap.UID)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/user", nil)
	req.Header.Set("Authorization", "Bearer "+creds.Token)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	login, err := http.Post(srv.URL+"/api/user/login", "application/json",
		strings.NewReader(`{"uid":"`+creds.UID+`","secret":"`+creds.Secret+`"}`))
	require.NoError(t, err)
	login.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, login.StatusCode)
}
