package users

import (
	"context"
)

// RepositoryPort defines data access methods for profile flows.
type RepositoryPort interface {
	FindByID(ctx context.Context, id string) (*User, error)
	Save(ctx context.Context, user *User) (*User, error)
}

// ProfileUpdate carries the optional fields of a profile change. Nil
// means "leave untouched".
type ProfileUpdate struct {
	Name  *string
	Email *string
}

// Service handles profile business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Profile returns the user record for the given id.
func (s *Service) Profile(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile applies the provided fields and persists the record.
// Email uniqueness is enforced only by the store constraint here; the
// repository maps a violation to a conflict error.
func (s *Service) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	return s.repo.Save(ctx, user)
}
