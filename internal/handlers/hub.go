package handlers

import (
	"errors"
	"net/http"
	"strings"

	"KinkLink/internal/hub"
	"KinkLink/internal/middleware"
	"KinkLink/internal/wire"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// IdentityHeader несёт игровую идентичность подключающегося клиента;
// подходит и query-параметр "identity".
const IdentityHeader = "X-Kinkster-Identity"

// HubHandler апгрейдит /hub до websocket и отдаёт соединение хабу.
type HubHandler struct {
	Hub      *hub.Hub
	Logger   *zap.SugaredLogger
	upgrader websocket.Upgrader
}

// NewHubHandler создаёт хендлер сокета.
func NewHubHandler(h *hub.Hub, logger *zap.SugaredLogger) *HubHandler {
	return &HubHandler{
		Hub:    h,
		Logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			Subprotocols:    []string{wire.SubprotocolCBOR},
			// клиенты-плагины не присылают Origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Connect обслуживает сокет до его закрытия.
func (h *HubHandler) Connect(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.GetUserIDFromContext(r.Context())
	identity := strings.TrimSpace(r.Header.Get(IdentityHeader))
	if identity == "" {
		identity = strings.TrimSpace(r.URL.Query().Get("identity"))
	}
	if identity == "" {
		http.Error(w, "identity required", http.StatusBadRequest)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warnw("hub upgrade failed", "uid", uid, "error", err)
		return
	}
	err = h.Hub.Serve(ws, uid, identity)
	switch {
	case errors.Is(err, hub.ErrHubClosed):
		h.Logger.Debugw("hub closed, socket dropped", "uid", uid)
	case err != nil:
		h.Logger.Errorw("hub session failed", "uid", uid, "error", err)
	}
}
