package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/authline/authline/internal/platform/httpx"
	"github.com/authline/authline/internal/users"
)

// RepositoryPort defines the store operations used by auth flows.
type RepositoryPort interface {
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	Insert(ctx context.Context, user *users.User) (*users.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// Session pairs a freshly issued token with the account it belongs to.
type Session struct {
	Token string
	User  *users.User
}

// Service wraps registration and login business rules.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	hasher *Hasher
	tokens *TokenService
}

// NewService constructs a new Service.
func NewService(logger *slog.Logger, repo RepositoryPort, hasher *Hasher, tokens *TokenService) *Service {
	return &Service{logger: logger, repo: repo, hasher: hasher, tokens: tokens}
}

// Register creates an account and issues its first token. The existence
// check and the insert are not atomic; the store's unique index on email
// is the last line of defense, and the repository already maps that
// violation to a duplicate error.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("user already exists: %w", httpx.ErrDuplicate)
	case !errors.Is(err, httpx.ErrNotFound):
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Insert(ctx, &users.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         users.RoleMember,
	})
	if err != nil {
		if errors.Is(err, httpx.ErrDuplicate) {
			return nil, fmt.Errorf("user already exists: %w", httpx.ErrDuplicate)
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

// Login validates credentials and issues a token. The last-login
// timestamp is recorded best-effort: a write failure is logged and does
// not fail the login.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, fmt.Errorf("invalid credentials: %w", httpx.ErrUnauthorized)
	}

	now := time.Now().UTC()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("record last login", slog.String("user_id", user.ID), slog.Any("error", err))
	} else {
		user.LastLogin = &now
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}
