package repository

import (
	"context"
	"sync"
	"time"

	"github.com/cliptag/cliptag/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type roomRegistry struct {
	rooms           map[string]*domain.Room // tag -> room
	defaultMaxUsers int
	mu              sync.RWMutex
}

func NewRoomRegistry(defaultMaxUsers int) domain.RoomRegistry {
	if defaultMaxUsers <= 0 {
		defaultMaxUsers = domain.DefaultMaxUsers
	}

	return &roomRegistry{
		rooms:           make(map[string]*domain.Room),
		defaultMaxUsers: defaultMaxUsers,
	}
}

func (r *roomRegistry) Get(ctx context.Context, tag string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[tag]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}

	cp := *room
	return &cp, nil
}

func (r *roomRegistry) Create(ctx context.Context, tag string, opts domain.CreateRoomOptions) (*domain.Room, error) {
	if tag == "" {
		return nil, domain.ErrInvalidInput
	}

	room := &domain.Room{
		Tag:       tag,
		IsLocked:  opts.IsLocked,
		MaxUsers:  opts.MaxUsers,
		OwnerID:   opts.OwnerID,
		CreatedAt: time.Now(),
		ExpiresAt: opts.ExpiresAt,
	}
	if room.MaxUsers <= 0 {
		room.MaxUsers = r.defaultMaxUsers
	}

	// Hash outside the lock; bcrypt is deliberately slow.
	if opts.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		room.PasswordHash = string(hash)
		room.IsLocked = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[tag]; exists {
		return nil, domain.ErrRoomExists
	}

	r.rooms[tag] = room

	cp := *room
	return &cp, nil
}

// ValidatePassword is true for open rooms; locked rooms compare via bcrypt,
// which is not vulnerable to timing discovery.
func (r *roomRegistry) ValidatePassword(ctx context.Context, tag string, supplied string) (bool, error) {
	r.mu.RLock()
	room, exists := r.rooms[tag]
	r.mu.RUnlock()

	if !exists {
		return false, domain.ErrRoomNotFound
	}

	if room.PasswordHash == "" {
		return true, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(supplied))
	return err == nil, nil
}

// Rename moves a room to a new tag. Old mapping removal and new mapping
// install happen under one critical section: either both or neither.
func (r *roomRegistry) Rename(ctx context.Context, oldTag, newTag, requesterID string) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[oldTag]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}

	if !room.IsOwner(requesterID) {
		return nil, domain.ErrNotRoomOwner
	}

	if _, taken := r.rooms[newTag]; taken {
		return nil, domain.ErrRoomExists
	}

	delete(r.rooms, oldTag)
	room.Tag = newTag
	r.rooms[newTag] = room

	cp := *room
	return &cp, nil
}

// Delete removes the room record. Idempotent; owner authorization is the
// pipeline's responsibility.
func (r *roomRegistry) Delete(ctx context.Context, tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, tag)
	return nil
}
