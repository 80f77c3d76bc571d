package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"wedding-rsvp/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

type AdminUser struct {
	ID           string    `json:"_id,omitempty"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewAdminUser validates the plain credentials and hashes the password.
func NewAdminUser(username, password, email string) (*AdminUser, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if len(username) < 3 {
		return nil, errors.New("username must be at least 3 characters long")
	}
	if len(password) < 6 {
		return nil, errors.New("password must be at least 6 characters long")
	}
	if err := validation.Var(email, "required,email"); err != nil {
		return nil, errors.New("please provide a valid email address")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	return &AdminUser{
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *AdminUser) CheckPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(candidate)) == nil
}
