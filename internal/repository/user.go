package repository

import (
	"context"

	"travel-tracker/internal/domain"
)

// UserRepository defines persistence operations for User entities.
// Lookups that match nothing return ErrNotFound; inserting or updating to an
// email that is already taken returns ErrDuplicateEmail.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
}
