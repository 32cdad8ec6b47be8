package domain

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	// TagLength is the fixed length of a room tag.
	TagLength = 4

	// DefaultMaxUsers bounds simultaneous connections when a room does not
	// set its own limit.
	DefaultMaxUsers = 10
)

var tagPattern = regexp.MustCompile(`^[A-Z0-9]{4}$`)

var (
	ErrInvalidTag   = errors.New("invalid room tag")
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
	ErrNotRoomOwner = errors.New("not the room owner")
	ErrRoomFull     = errors.New("room is full")
	ErrInvalidInput = errors.New("invalid input")
)

// Room is the metadata record for a tag. Content lives in the ContentStore;
// live connections live in the hub. A room with a password hash is "locked"
// and every content operation against it must present the password.
type Room struct {
	Tag          string     `json:"tag"`
	PasswordHash string     `json:"-"`
	IsLocked     bool       `json:"isLocked"`
	MaxUsers     int        `json:"maxUsers"`
	OwnerID      string     `json:"ownerId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

// RequiresPassword reports whether content access must present a password.
func (r *Room) RequiresPassword() bool {
	return r.IsLocked && r.PasswordHash != ""
}

// IsOwner reports whether the given identity created the room. Rooms created
// anonymously (auto-vivified or created without a token) have no owner and
// nobody passes this check.
func (r *Room) IsOwner(identityID string) bool {
	return r.OwnerID != "" && r.OwnerID == identityID
}

// CreateRoomOptions carries the caller-supplied settings for an explicit
// room creation. Password is plaintext here and hashed by the registry; it
// must never be persisted or logged as-is.
type CreateRoomOptions struct {
	Password  string
	IsLocked  bool
	MaxUsers  int
	OwnerID   string
	ExpiresAt *time.Time
}

// RoomRegistry maps tags to room metadata and validates passwords. It is a
// pure data component: owner checks and auto-vivification policy belong to
// the request pipeline.
type RoomRegistry interface {
	Get(ctx context.Context, tag string) (*Room, error)
	Create(ctx context.Context, tag string, opts CreateRoomOptions) (*Room, error)
	ValidatePassword(ctx context.Context, tag string, supplied string) (bool, error)
	Rename(ctx context.Context, oldTag, newTag, requesterID string) (*Room, error)
	Delete(ctx context.Context, tag string) error
}

// NormalizeTag canonicalizes a raw tag (case-insensitive on input) to its
// uppercase form, rejecting anything that is not exactly four alphanumeric
// characters.
func NormalizeTag(raw string) (string, error) {
	tag := strings.ToUpper(strings.TrimSpace(raw))
	if !tagPattern.MatchString(tag) {
		return "", ErrInvalidTag
	}
	return tag, nil
}
