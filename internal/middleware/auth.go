package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"KinkLink/internal/security"
)

type ctxKey int

const userIDKey ctxKey = iota

// CookieName — имя cookie с JWT.
const CookieName = "auth_token"

// DefaultTokenTTL используется SetLoginCookie.
const DefaultTokenTTL = 24 * time.Hour

// WithAuth кладёт UID в контекст, если запрос несёт валидный JWT в cookie
// или в заголовке Authorization: Bearer. Анонимные запросы пропускаются.
func WithAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := security.ParseToken(secret, token)
			if err != nil {
				sugar.Debugw("auth token rejected", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, claims.UID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// RequireAuth отвечает 401, если WithAuth не нашёл пользователя.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserIDFromContext возвращает UID, установленный WithAuth.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userIDKey).(string)
	return uid, ok && uid != ""
}

// WithUserID кладёт UID в контекст (для тестов и внутренних вызовов).
func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, userIDKey, uid)
}

// SetLoginCookie выпускает JWT для uid, ставит cookie и возвращает токен.
func SetLoginCookie(w http.ResponseWriter, uid, secret string) (string, error) {
	return SetLoginCookieTTL(w, uid, secret, DefaultTokenTTL)
}

// SetLoginCookieTTL — SetLoginCookie с явным временем жизни токена.
func SetLoginCookieTTL(w http.ResponseWriter, uid, secret string, ttl time.Duration) (string, error) {
	token, err := security.GenerateToken(secret, uid, ttl)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
	})
	return token, nil
}
