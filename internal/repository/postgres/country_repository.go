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

const createCountriesTable = `
CREATE TABLE IF NOT EXISTS countries (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	common_name TEXT NOT NULL,
	official_name TEXT NOT NULL,
	region TEXT NOT NULL,
	currency TEXT NOT NULL,
	capital TEXT NOT NULL,
	continent TEXT NOT NULL,
	flag_png TEXT NOT NULL,
	google_maps_url TEXT NOT NULL,
	population BIGINT NOT NULL,
	official_name_en TEXT NOT NULL,
	visited BOOLEAN NOT NULL DEFAULT FALSE,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const createCountriesIndex = `CREATE INDEX IF NOT EXISTS idx_countries_user_id ON countries(user_id)`

const selectCountry = `
SELECT id, user_id, common_name, official_name, region, currency, capital, continent, flag_png,
	google_maps_url, population, official_name_en, visited, notes, created_at, updated_at
FROM countries`

// CountryRepository implements repository.CountryRepository using pgxpool.
type CountryRepository struct {
	pool *pgxpool.Pool
}

func NewCountryRepository(pool *pgxpool.Pool) *CountryRepository {
	return &CountryRepository{pool: pool}
}

func (r *CountryRepository) Init(ctx context.Context) error {
	for _, stmt := range []string{createCountriesTable, createCountriesIndex} {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create countries table: %w", err)
		}
	}
	return nil
}

func (r *CountryRepository) Create(ctx context.Context, c *domain.Country) (int64, error) {
	query := `
INSERT INTO countries (user_id, common_name, official_name, region, currency, capital, continent, flag_png,
	google_maps_url, population, official_name_en, visited, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		c.UserID, c.CommonName, c.OfficialName, c.Region, c.Currency, c.Capital, c.Continent, c.FlagPNG,
		c.GoogleMapsURL, c.Population, c.OfficialNameEN, c.Visited, c.Notes,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("insert country for user %d: %w", c.UserID, repository.ErrNotFound)
		}
		return 0, fmt.Errorf("insert country: %w", err)
	}
	return c.ID, nil
}

func (r *CountryRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Country, error) {
	rows, err := r.pool.Query(ctx, selectCountry+` WHERE user_id = $1 ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}
	defer rows.Close()

	countries := []domain.Country{}
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		countries = append(countries, *c)
	}
	return countries, rows.Err()
}

func (r *CountryRepository) GetForUser(ctx context.Context, userID, id int64) (*domain.Country, error) {
	row := r.pool.QueryRow(ctx, selectCountry+` WHERE id = $1 AND user_id = $2`, id, userID)
	return scanCountry(row)
}

func (r *CountryRepository) Update(ctx context.Context, c *domain.Country) error {
	query := `
UPDATE countries
SET common_name = $1, official_name = $2, region = $3, currency = $4, capital = $5, continent = $6,
	flag_png = $7, google_maps_url = $8, population = $9, official_name_en = $10, visited = $11,
	notes = $12, updated_at = now()
WHERE id = $13 AND user_id = $14
RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		c.CommonName, c.OfficialName, c.Region, c.Currency, c.Capital, c.Continent, c.FlagPNG,
		c.GoogleMapsURL, c.Population, c.OfficialNameEN, c.Visited, c.Notes, c.ID, c.UserID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("update country %d: %w", c.ID, repository.ErrNotFound)
		}
		return fmt.Errorf("update country %d: %w", c.ID, err)
	}
	return nil
}

func (r *CountryRepository) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM countries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete country %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete country %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

func scanCountry(row pgx.Row) (*domain.Country, error) {
	var c domain.Country
	err := row.Scan(
		&c.ID, &c.UserID, &c.CommonName, &c.OfficialName, &c.Region, &c.Currency, &c.Capital, &c.Continent,
		&c.FlagPNG, &c.GoogleMapsURL, &c.Population, &c.OfficialNameEN, &c.Visited, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan country: %w", err)
	}
	return &c, nil
}

var _ repository.CountryRepository = (*CountryRepository)(nil)
