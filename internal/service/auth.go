package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/authgate/authgate-go/internal/crypto"
	"github.com/authgate/authgate-go/internal/model"
	"github.com/authgate/authgate-go/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUsernameRequired   = errors.New("username is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrAlreadyRegistered  = errors.New("user already registered")
	ErrUserNotFound       = errors.New("user not found")
)

// UserStore is the persistence boundary the auth service depends on.
// *repository.UserRepository satisfies it; tests substitute fakes.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// AuthService handles registration, login and user lookup.
type AuthService struct {
	store  UserStore
	hasher crypto.Hasher
	codec  *crypto.Codec
}

// NewAuthService creates a new AuthService.
func NewAuthService(store UserStore, hasher crypto.Hasher, codec *crypto.Codec) *AuthService {
	return &AuthService{
		store:  store,
		hasher: hasher,
		codec:  codec,
	}
}

// Register creates a new user account and returns its public projection.
// The email pre-check gives a friendly conflict error, but the store's
// unique indexes are what actually guarantee uniqueness under races.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.PublicUser, error) {
	if req.Username == "" {
		return model.PublicUser{}, ErrUsernameRequired
	}
	if req.Email == "" {
		return model.PublicUser{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.PublicUser{}, ErrPasswordRequired
	}

	if _, err := s.store.GetByEmail(ctx, req.Email); err == nil {
		return model.PublicUser{}, ErrAlreadyRegistered
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return model.PublicUser{}, fmt.Errorf("checking existing user: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return model.PublicUser{}, ErrAlreadyRegistered
		}
		return model.PublicUser{}, fmt.Errorf("creating user: %w", err)
	}

	return user.Public(), nil
}

// Authenticate verifies an email/password pair and issues a bearer
// token. An unknown email and a wrong password return the same error,
// so callers cannot probe which addresses are registered.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("fetching user: %w", err)
	}

	match, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("verifying password: %w", err)
	}
	if !match {
		return "", ErrInvalidCredentials
	}

	token, err := s.codec.Issue(user.ID, user.Username, user.Email)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}

	return token, nil
}

// GetByID retrieves a user by ID and returns its public projection.
func (s *AuthService) GetByID(ctx context.Context, id int64) (model.PublicUser, error) {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.PublicUser{}, ErrUserNotFound
		}
		return model.PublicUser{}, fmt.Errorf("fetching user: %w", err)
	}

	return user.Public(), nil
}
