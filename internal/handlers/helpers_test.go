package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"KinkLink/internal/config"
	"KinkLink/internal/handlers"
	"KinkLink/internal/middleware"
	"KinkLink/internal/model"
	"KinkLink/internal/repo"
	"KinkLink/internal/service"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Минимальные моки
type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUser(ctx context.Context, user *model.User, auth *model.Auth) (*model.User, error) {
	args := m.Called(ctx, user, auth)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetUser(ctx context.Context, uid string) (*model.User, error) {
	args := m.Called(ctx, uid)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetAuth(ctx context.Context, uid string) (*model.Auth, error) {
	args := m.Called(ctx, uid)
	if a, ok := args.Get(0).(*model.Auth); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) Exists(ctx context.Context, uid string) (bool, error) {
	args := m.Called(ctx, uid)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) TouchLogin(ctx context.Context, uid string, at time.Time) error {
	return m.Called(ctx, uid, at).Error(0)
}

func (m *mockUserRepo) DeleteUser(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}

var _ repo.UserRepository = (*mockUserRepo)(nil)

// --- Хелперы ---
func newTestRouter(t *testing.T, ur repo.UserRepository, health handlers.HealthFunc) http.Handler {
	t.Helper()
	cfg := &config.Config{AuthSecret: "test-secret", TokenTTL: time.Hour}
	logger := zap.NewNop().Sugar()

	userSvc := service.NewUserService(ur, nil)
	// сокет и kinkster-сервис в этих тестах не используются
	h := handlers.NewHandler(userSvc, nil, nil, health, logger, cfg)
	return h.Router
}

func addAuthCookie(t *testing.T, req *http.Request, uid, secret string) {
	t.Helper()
	rr := httptest.NewRecorder()
	_, err := middleware.SetLoginCookie(rr, uid, secret)
	require.NoError(t, err)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
}

func hasAuthCookie(rr *httptest.ResponseRecorder) bool {
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.CookieName && c.Value != "" {
			return true
		}
	}
	return false
}
