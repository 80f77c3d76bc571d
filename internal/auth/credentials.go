package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"wedding-rsvp/internal/models"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator checks an admin username and password.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) error
}

// StaticCredentials compares against the configured admin pair.
type StaticCredentials struct {
	Username string
	Password string
}

func (s StaticCredentials) Authenticate(_ context.Context, username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.Password)) == 1
	if !userOK || !passOK || s.Username == "" {
		return ErrInvalidCredentials
	}
	return nil
}

// AdminStore persists admin users.
type AdminStore interface {
	FindByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	Create(ctx context.Context, user *models.AdminUser) error
}

// StoreCredentials checks the bcrypt hash of a stored admin user.
type StoreCredentials struct {
	Store AdminStore
}

func (s StoreCredentials) Authenticate(ctx context.Context, username, password string) error {
	user, err := s.Store.FindByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if !user.CheckPassword(password) {
		return ErrInvalidCredentials
	}
	return nil
}
