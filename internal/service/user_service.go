package service

import (
	"context"
	"errors"
	"strings"

	"task_tracker/internal/domain"
	"task_tracker/internal/repository"
	"task_tracker/internal/store"
)

var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(s store.Store) *UserService {
	return &UserService{repo: repository.NewUserRepository(s)}
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(email)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Create returns the user registered under email, creating it when needed.
// created reports whether this call inserted it.
func (s *UserService) Create(ctx context.Context, email string) (user *domain.User, created bool, err error) {
	email = NormalizeEmail(email)

	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	u := &domain.User{Email: email}
	err = s.repo.Create(ctx, u)
	if errors.Is(err, store.ErrConflict) {
		// lost a race with a concurrent create
		existing, err := s.repo.GetByEmail(ctx, email)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}
