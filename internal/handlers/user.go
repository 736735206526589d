package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"KinkLink/internal/config"
	"KinkLink/internal/middleware"
	"KinkLink/internal/service"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserHandler — регистрация, вход и удаление аккаунта.
type UserHandler struct {
	UserService     *service.UserService
	KinksterService *service.KinksterService
	Logger          *zap.SugaredLogger
	Config          *config.Config
}

// NewUserHandler создаёт хендлер пользователей.
func NewUserHandler(userService *service.UserService, kinksterService *service.KinksterService, logger *zap.SugaredLogger, cfg *config.Config) *UserHandler {
	return &UserHandler{UserService: userService, KinksterService: kinksterService, Logger: logger, Config: cfg}
}

type registerRequest struct {
	Alias string `json:"alias,omitempty"`
}

type registerResponse struct {
	UID    string `json:"uid"`
	Secret string `json:"secret"`
	Token  string `json:"token"`
}

type loginRequest struct {
	UID    string `json:"uid"`
	Secret string `json:"secret"`
}

type loginResponse struct {
	UID   string `json:"uid"`
	Token string `json:"token"`
}

type statusResponse struct {
	Result string `json:"result"`
}

// Register выдаёт новый UID и секрет. Тело запроса необязательно.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	creds, err := h.UserService.Register(r.Context(), req.Alias)
	if errors.Is(err, service.ErrAliasTaken) {
		http.Error(w, "alias already taken", http.StatusConflict)
		return
	}
	if err != nil {
		h.Logger.Errorw("register failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	token, err := middleware.SetLoginCookieTTL(w, creds.UID, h.Config.AuthSecret, h.Config.TokenTTL)
	if err != nil {
		h.Logger.Errorw("issue token", "uid", creds.UID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.Logger.Infow("user registered", "uid", creds.UID)
	writeJSON(w, http.StatusOK, registerResponse{UID: creds.UID, Secret: creds.Secret, Token: token})
}

// Login проверяет секрет и ставит cookie с JWT.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.UID = strings.TrimSpace(req.UID)
	if req.UID == "" || req.Secret == "" {
		http.Error(w, "uid and secret required", http.StatusBadRequest)
		return
	}

	user, err := h.UserService.Login(r.Context(), req.UID, req.Secret)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		http.Error(w, "invalid uid or secret", http.StatusUnauthorized)
		return
	case errors.Is(err, service.ErrBanned):
		http.Error(w, "account is banned", http.StatusForbidden)
		return
	case err != nil:
		h.Logger.Errorw("login failed", "uid", req.UID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	token, err := middleware.SetLoginCookieTTL(w, user.UID, h.Config.AuthSecret, h.Config.TokenTTL)
	if err != nil {
		h.Logger.Errorw("issue token", "uid", user.UID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{UID: user.UID, Token: token})
}

// Status отвечает, под каким UID пришёл запрос.
func (h *UserHandler) Status(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, statusResponse{Result: "anonymous"})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Result: "User = " + uid})
}

// Delete удаляет аккаунт вызывающего вместе со всеми связями.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.GetUserIDFromContext(r.Context())
	err := h.KinksterService.DeleteAccount(r.Context(), uid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Errorw("delete account", "uid", uid, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: middleware.CookieName, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
