package auth

import (
	"context"
	"errors"

	"github.com/cliptag/cliptag/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// Service is the identity collaborator: it mints and verifies credentials so
// room ownership can be attributed. The content pipeline never talks to it
// directly; handlers resolve an identity up front and pass the ID along.
type Service struct {
	users  domain.UserRepository
	tokens *TokenManager
}

func NewService(users domain.UserRepository, tokens *TokenManager) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
	}
}

func (s *Service) Register(ctx context.Context, username, password string) (*domain.User, string, error) {
	user, err := domain.NewUser(username)
	if err != nil {
		return nil, "", err
	}

	if len(password) < 6 {
		return nil, "", errors.New("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	user.PasswordHash = string(hash)

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Sign(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Sign(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Identify resolves a bearer token to the user it was issued for.
func (s *Service) Identify(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	return user, nil
}
