package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"travel-tracker/internal/domain"
	"travel-tracker/internal/repository"
)

const createCountriesTable = `
CREATE TABLE IF NOT EXISTS countries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	common_name TEXT NOT NULL,
	official_name TEXT NOT NULL,
	region TEXT NOT NULL,
	currency TEXT NOT NULL,
	capital TEXT NOT NULL,
	continent TEXT NOT NULL,
	flag_png TEXT NOT NULL,
	google_maps_url TEXT NOT NULL,
	population INTEGER NOT NULL,
	official_name_en TEXT NOT NULL,
	visited INTEGER NOT NULL DEFAULT 0,
	notes TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_countries_user_id ON countries(user_id);
`

const selectCountry = `
SELECT id, user_id, common_name, official_name, region, currency, capital, continent, flag_png,
	google_maps_url, population, official_name_en, visited, notes, created_at, updated_at
FROM countries`

type CountryRepository struct {
	db *sql.DB
}

func NewCountryRepository(db *sql.DB) repository.CountryRepository {
	return &CountryRepository{db: db}
}

// Init must run after the users table exists.
func (r *CountryRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCountriesTable); err != nil {
		return fmt.Errorf("create countries table: %w", err)
	}
	return nil
}

func (r *CountryRepository) Create(ctx context.Context, country *domain.Country) (int64, error) {
	now := time.Now().UTC()
	country.CreatedAt = now
	country.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO countries (user_id, common_name, official_name, region, currency, capital, continent, flag_png,
	google_maps_url, population, official_name_en, visited, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		country.UserID,
		country.CommonName,
		country.OfficialName,
		country.Region,
		country.Currency,
		country.Capital,
		country.Continent,
		country.FlagPNG,
		country.GoogleMapsURL,
		country.Population,
		country.OfficialNameEN,
		country.Visited,
		country.Notes,
		country.CreatedAt,
		country.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("insert country for user %d: %w", country.UserID, repository.ErrNotFound)
		}
		return 0, fmt.Errorf("insert country: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("country last insert id: %w", err)
	}
	country.ID = id
	return id, nil
}

func (r *CountryRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Country, error) {
	rows, err := r.db.QueryContext(ctx, selectCountry+`
WHERE user_id = ?
ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}
	defer rows.Close()

	countries := []domain.Country{}
	for rows.Next() {
		country, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		countries = append(countries, *country)
	}
	return countries, rows.Err()
}

func (r *CountryRepository) GetForUser(ctx context.Context, userID, id int64) (*domain.Country, error) {
	row := r.db.QueryRowContext(ctx, selectCountry+` WHERE id = ? AND user_id = ?`, id, userID)
	return scanCountry(row)
}

func (r *CountryRepository) Update(ctx context.Context, country *domain.Country) error {
	country.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE countries
SET common_name = ?, official_name = ?, region = ?, currency = ?, capital = ?, continent = ?, flag_png = ?,
	google_maps_url = ?, population = ?, official_name_en = ?, visited = ?, notes = ?, updated_at = ?
WHERE id = ? AND user_id = ?`,
		country.CommonName,
		country.OfficialName,
		country.Region,
		country.Currency,
		country.Capital,
		country.Continent,
		country.FlagPNG,
		country.GoogleMapsURL,
		country.Population,
		country.OfficialNameEN,
		country.Visited,
		country.Notes,
		country.UpdatedAt,
		country.ID,
		country.UserID,
	)
	if err != nil {
		return fmt.Errorf("update country %d: %w", country.ID, err)
	}
	return expectOneRow(res, "update country")
}

func (r *CountryRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM countries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete country %d: %w", id, err)
	}
	return expectOneRow(res, "delete country")
}

func scanCountry(row rowScanner) (*domain.Country, error) {
	var c domain.Country
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.CommonName,
		&c.OfficialName,
		&c.Region,
		&c.Currency,
		&c.Capital,
		&c.Continent,
		&c.FlagPNG,
		&c.GoogleMapsURL,
		&c.Population,
		&c.OfficialNameEN,
		&c.Visited,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan country: %w", err)
	}
	return &c, nil
}

var _ repository.CountryRepository = (*CountryRepository)(nil)
