package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"travel-tracker/internal/domain"
	"travel-tracker/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	full_name TEXT NOT NULL,
	street TEXT NOT NULL,
	city TEXT NOT NULL,
	state TEXT NOT NULL,
	number TEXT NOT NULL,
	postal_code TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const selectUser = `
SELECT id, email, full_name, street, city, state, number, postal_code, password_hash, created_at, updated_at
FROM users`

// UserRepository implements repository.UserRepository using pgxpool.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

// Create inserts user and fills in the generated id and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	query := `
INSERT INTO users (email, full_name, street, city, state, number, postal_code, password_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Email, user.FullName, user.Street, user.City, user.State, user.Number, user.PostalCode, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert user: %w", repository.ErrDuplicateEmail)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return user.ID, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.scanOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
UPDATE users
SET email = $1, full_name = $2, street = $3, city = $4, state = $5, number = $6, postal_code = $7,
	password_hash = $8, updated_at = now()
WHERE id = $9
RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Email, user.FullName, user.Street, user.City, user.State, user.Number, user.PostalCode, user.PasswordHash, user.ID,
	).Scan(&user.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("update user %d: %w", user.ID, repository.ErrNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("update user %d: %w", user.ID, repository.ErrDuplicateEmail)
	default:
		return fmt.Errorf("update user %d: %w", user.ID, err)
	}
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete user %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) scanOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.FullName, &u.Street, &u.City, &u.State, &u.Number, &u.PostalCode,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
