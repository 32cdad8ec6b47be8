package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/cliptag/cliptag/internal/domain"
)

type userRepository struct {
	byID   map[string]*domain.User
	byName map[string]*domain.User // lowercased username -> user
	mu     sync.RWMutex
}

func NewUserRepository() domain.UserRepository {
	return &userRepository{
		byID:   make(map[string]*domain.User),
		byName: make(map[string]*domain.User),
	}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	key := strings.ToLower(user.Username)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[key]; exists {
		return domain.ErrUserExists
	}

	cp := *user
	r.byID[user.ID] = &cp
	r.byName[key] = &cp

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.byID[id]
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	cp := *user
	return &cp, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.byName[strings.ToLower(username)]
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	cp := *user
	return &cp, nil
}
