package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"KinkLink/internal/cli/repo"
)

// CookieName — имя auth cookie сервера.
const CookieName = "auth_token"

// PostJSON отправляет JSON POST-запрос. Непустой token передаётся как cookie авторизации.
func PostJSON(ctx context.Context, url string, payload any, token string) (*http.Response, []byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return do(req, token)
}

// Delete отправляет DELETE-запрос с cookie авторизации.
func Delete(ctx context.Context, url, token string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return nil, nil, err
	}
	return do(req, token)
}

func do(req *http.Request, token string) (*http.Response, []byte, error) {
	if token != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}
	return resp, body, nil
}

// authBody — поля ответа register/login, нужные клиенту.
type authBody struct {
	UID   string `json:"uid"`
	Token string `json:"token"`
}

// PersistAuth сохраняет токен (из cookie, иначе из тела ответа) и UID в store.
// Возвращает сохранённый UID.
func PersistAuth(store repo.AuthStore, resp *http.Response, body []byte) (string, error) {
	var ab authBody
	if len(body) > 0 {
		if err := json.Unmarshal(body, &ab); err != nil {
			return "", fmt.Errorf("decode auth response: %w", err)
		}
	}
	token := ab.Token
	for _, c := range resp.Cookies() {
		if c.Name == CookieName && c.Value != "" {
			token = c.Value
			break
		}
	}
	if token == "" {
		return "", fmt.Errorf("no auth token in response")
	}
	if err := store.Save(token); err != nil {
		return "", err
	}
	if ab.UID != "" {
		if err := store.SaveUID(ab.UID); err != nil {
			return "", err
		}
	}
	return ab.UID, nil
}
