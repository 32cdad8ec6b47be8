package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cliptag/cliptag/internal/infrastructure/validate"
	"github.com/google/uuid"
)

var (
	ErrUserExists         = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// User is an identity issued by the auth collaborator. The core only uses it
// as a room owner reference for owner-only operations.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// NewUser validates and normalizes a raw username and mints the identity.
// The password hash is filled in by the auth service.
func NewUser(rawName string) (*User, error) {
	validateUsername := validate.Compose(
		validate.Required(),
		validate.MinLength(2),
		validate.MaxLength(32),
		validate.NoSpaces(),
		validate.Matches(`^[a-zA-Z0-9][a-zA-Z0-9_-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`,
			"username can only contain letters, numbers, underscores, and hyphens (cannot start/end with _ or -)"),
	)

	if err := validateUsername(rawName); err != nil {
		return nil, err
	}

	name := strings.ToLower(strings.TrimSpace(rawName))

	return &User{
		ID:        uuid.NewString(),
		Username:  name,
		CreatedAt: time.Now(),
	}, nil
}
