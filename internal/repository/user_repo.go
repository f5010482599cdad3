package repository

import (
	"context"
	"fmt"

	"task_tracker/internal/domain"
	"task_tracker/internal/store"
)

type UserRepository struct {
	store store.Store
}

func NewUserRepository(s store.Store) *UserRepository {
	return &UserRepository{store: s}
}

// GetByEmail matches email exactly; callers normalize case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	docs, err := r.store.Query(ctx, domain.CollectionUsers,
		store.Query{Limit: 1}.Where(domain.FieldEmail, email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("get user by email: %w", store.ErrNotFound)
	}
	return userFromDocument(docs[0]), nil
}

// Create stores u unless its email is taken, returning store.ErrConflict then.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	doc, err := r.store.AddUnique(ctx, domain.CollectionUsers, domain.FieldEmail, map[string]any{
		domain.FieldEmail:     u.Email,
		domain.FieldCreatedAt: store.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	*u = *userFromDocument(doc)
	return nil
}

func userFromDocument(doc store.Document) *domain.User {
	u := &domain.User{
		ID:    doc.ID,
		Email: stringField(doc.Data, domain.FieldEmail),
	}
	if ts, ok := timeField(doc.Data, domain.FieldCreatedAt); ok {
		u.CreatedAt = ts
	}
	return u
}
