package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"KinkLink/internal/cli/api"
	"KinkLink/internal/config"
)

type registerRequest struct {
	Alias string `json:"alias,omitempty"`
}

type registerResponse struct {
	UID    string `json:"uid"`
	Secret string `json:"secret"`
}

type loginRequest struct {
	UID    string `json:"uid"`
	Secret string `json:"secret"`
}

type statusResponse struct {
	Result string `json:"result"`
}

type registerCmd struct{}

func (registerCmd) Name() string        { return "register" }
func (registerCmd) Description() string { return "Create an account, print UID and secret, store the token" }
func (registerCmd) Usage() string       { return "register [alias]" }

func (registerCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	var req registerRequest
	if len(args) == 1 {
		req.Alias = args[0]
	}
	resp, body, err := api.PostJSON(ctx, endpoint(cfg, "/api/user/register"), req, "")
	if err != nil {
		return err
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusConflict:
		return errors.New("alias already taken")
	default:
		return serverError(resp.StatusCode, body)
	}
	var rr registerResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if _, err := api.PersistAuth(storeFor(cfg), resp, body); err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}
	fmt.Fprintf(Out, "UID: %s\nSecret: %s\nKeep the secret safe: it is shown only once.\n", rr.UID, rr.Secret)
	return nil
}

type loginCmd struct{}

func (loginCmd) Name() string        { return "login" }
func (loginCmd) Description() string { return "Login and store auth token" }
func (loginCmd) Usage() string       { return "login <uid> <secret>" }

func (loginCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	resp, body, err := api.PostJSON(ctx, endpoint(cfg, "/api/user/login"), loginRequest{UID: args[0], Secret: args[1]}, "")
	if err != nil {
		return err
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return errors.New("invalid uid or secret")
	case http.StatusForbidden:
		return errors.New("account is banned")
	default:
		return serverError(resp.StatusCode, body)
	}
	if _, err := api.PersistAuth(storeFor(cfg), resp, body); err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}
	fmt.Fprintln(Out, "Logged in successfully")
	return nil
}

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Show who the server thinks you are" }
func (statusCmd) Usage() string       { return "status" }

func (statusCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	token, _ := storeFor(cfg).Load()
	resp, body, err := api.PostJSON(ctx, endpoint(cfg, "/api/user/test"), struct{}{}, token)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return serverError(resp.StatusCode, body)
	}
	var sr statusResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	fmt.Fprintln(Out, "Status:", sr.Result)
	return nil
}

type logoutCmd struct{}

func (logoutCmd) Name() string        { return "logout" }
func (logoutCmd) Description() string { return "Forget the stored token" }
func (logoutCmd) Usage() string       { return "logout" }

func (logoutCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	if err := storeFor(cfg).Clear(); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Logged out")
	return nil
}

type deleteAccountCmd struct{}

func (deleteAccountCmd) Name() string        { return "delete-account" }
func (deleteAccountCmd) Description() string { return "Delete your account, pairs and state" }
func (deleteAccountCmd) Usage() string       { return "delete-account" }

func (deleteAccountCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	store := storeFor(cfg)
	token, err := store.Load()
	if err != nil {
		return errors.New("not logged in")
	}
	resp, body, err := api.Delete(ctx, endpoint(cfg, "/api/user"), token)
	if err != nil {
		return err
	}
	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
	case http.StatusUnauthorized:
		return errors.New("token rejected, login again")
	default:
		return serverError(resp.StatusCode, body)
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Account deleted")
	return nil
}

func init() {
	RegisterCmd(registerCmd{})
	RegisterCmd(loginCmd{})
	RegisterCmd(statusCmd{})
	RegisterCmd(logoutCmd{})
	RegisterCmd(deleteAccountCmd{})
}
