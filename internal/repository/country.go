package repository

import (
	"context"

	"travel-tracker/internal/domain"
)

// CountryRepository manages each user's countries of interest.
// Every read and write is keyed by the owning user id. Creating a country for
// a user that does not exist returns ErrNotFound.
type CountryRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, country *domain.Country) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Country, error)
	GetForUser(ctx context.Context, userID, id int64) (*domain.Country, error)
	Update(ctx context.Context, country *domain.Country) error
	Delete(ctx context.Context, userID, id int64) error
}
