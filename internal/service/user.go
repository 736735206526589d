package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"KinkLink/internal/model"
	"KinkLink/internal/repo"
	"KinkLink/internal/security"

	"gorm.io/gorm"
)

var (
	ErrAliasTaken         = errors.New("alias already taken")
	ErrInvalidCredentials = errors.New("invalid uid or secret")
	ErrBanned             = errors.New("account is banned")
)

// Credentials are returned once, on registration. The secret is never
// stored in clear.
type Credentials struct {
	UID    string `json:"uid"`
	Secret string `json:"secret"`
}

// UserService issues and checks account credentials.
type UserService struct {
	repo    repo.UserRepository
	claimer AccountClaimer
}

// NewUserService returns a UserService.
func NewUserService(r repo.UserRepository, claimer AccountClaimer) *UserService {
	if claimer == nil {
		claimer = NopClaimer{}
	}
	return &UserService{repo: r, claimer: claimer}
}

// Register creates a user with a fresh UID and secret. alias is optional.
func (s *UserService) Register(ctx context.Context, alias string) (*Credentials, error) {
	secret, err := security.NewSecret()
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	hash, err := security.HashSecret(secret)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}

	user := &model.User{UID: security.NewUID()}
	if a := strings.TrimSpace(alias); a != "" {
		user.Alias = &a
	}
	created, err := s.repo.CreateUser(ctx, user, &model.Auth{HashedSecret: hash})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAliasTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := s.claimer.Claim(ctx, created.UID); err != nil {
		return nil, fmt.Errorf("claim %s: %w", created.UID, err)
	}
	return &Credentials{UID: created.UID, Secret: secret}, nil
}

// Login checks the secret of uid.
func (s *UserService) Login(ctx context.Context, uid, secret string) (*model.User, error) {
	auth, err := s.repo.GetAuth(ctx, uid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if !security.CheckSecret(auth.HashedSecret, secret) {
		return nil, ErrInvalidCredentials
	}
	if auth.Banned {
		return nil, ErrBanned
	}
	return s.repo.GetUser(ctx, uid)
}
