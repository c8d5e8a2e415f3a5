package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-tracker/internal/domain"
	"travel-tracker/internal/repository"
)

func openTestDB(t *testing.T) (*sql.DB, repository.UserRepository, repository.CountryRepository) {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "nested", "travel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := NewUserRepository(db)
	countries := NewCountryRepository(db)
	ctx := context.Background()
	require.NoError(t, users.Init(ctx))
	require.NoError(t, countries.Init(ctx))
	// Init is idempotent
	require.NoError(t, users.Init(ctx))
	require.NoError(t, countries.Init(ctx))
	return db, users, countries
}

func newUser(email string) *domain.User {
	return &domain.User{
		Email:        email,
		FullName:     "Ana Souza",
		Street:       "Rua das Flores",
		City:         "Recife",
		State:        "PE",
		Number:       "100",
		PostalCode:   "50000-000",
		PasswordHash: "$2a$10$hash",
	}
}

func newCountry(userID int64, name string) *domain.Country {
	return &domain.Country{
		UserID:         userID,
		CommonName:     name,
		OfficialName:   "Republic of " + name,
		Region:         "Americas",
		Currency:       "Peso",
		Capital:        "Capital",
		Continent:      "South America",
		FlagPNG:        "https://flagcdn.com/w320/xx.png",
		GoogleMapsURL:  "https://goo.gl/maps/xx",
		Population:     1000,
		OfficialNameEN: "Republic of " + name,
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	_, users, _ := openTestDB(t)
	ctx := context.Background()

	user := newUser("a@x.com")
	id, err := users.Create(ctx, user)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	byEmail, err := users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)
	assert.Equal(t, "Ana Souza", byEmail.FullName)
	assert.Equal(t, "$2a$10$hash", byEmail.PasswordHash)

	byID, err := users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)
	assert.Equal(t, "50000-000", byID.PostalCode)

	// lookups are case-sensitive on email
	_, err = users.GetByEmail(ctx, "A@X.COM")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = users.GetByID(ctx, id+100)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	_, users, _ := openTestDB(t)
	ctx := context.Background()

	_, err := users.Create(ctx, newUser("a@x.com"))
	require.NoError(t, err)

	dup := newUser("a@x.com")
	dup.FullName = "Someone Else"
	_, err = users.Create(ctx, dup)
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	stored, err := users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", stored.FullName)
}

func TestUserRepository_Update(t *testing.T) {
	_, users, _ := openTestDB(t)
	ctx := context.Background()

	first := newUser("a@x.com")
	_, err := users.Create(ctx, first)
	require.NoError(t, err)
	second := newUser("b@x.com")
	_, err = users.Create(ctx, second)
	require.NoError(t, err)

	first.City = "Olinda"
	first.PasswordHash = "$2a$10$other"
	require.NoError(t, users.Update(ctx, first))

	got, err := users.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Olinda", got.City)
	assert.Equal(t, "$2a$10$other", got.PasswordHash)

	second.Email = "a@x.com"
	assert.ErrorIs(t, users.Update(ctx, second), repository.ErrDuplicateEmail)

	missing := newUser("c@x.com")
	missing.ID = 9999
	assert.ErrorIs(t, users.Update(ctx, missing), repository.ErrNotFound)
}

func TestUserRepository_DeleteCascadesCountries(t *testing.T) {
	_, users, countries := openTestDB(t)
	ctx := context.Background()

	user := newUser("a@x.com")
	_, err := users.Create(ctx, user)
	require.NoError(t, err)
	other := newUser("b@x.com")
	_, err = users.Create(ctx, other)
	require.NoError(t, err)

	_, err = countries.Create(ctx, newCountry(user.ID, "Chile"))
	require.NoError(t, err)
	_, err = countries.Create(ctx, newCountry(other.ID, "Peru"))
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, user.ID))

	_, err = users.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	owned, err := countries.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, owned)

	kept, err := countries.ListByUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	assert.ErrorIs(t, users.Delete(ctx, user.ID), repository.ErrNotFound)
}

func TestCountryRepository_OwnershipScoping(t *testing.T) {
	_, users, countries := openTestDB(t)
	ctx := context.Background()

	owner := newUser("a@x.com")
	_, err := users.Create(ctx, owner)
	require.NoError(t, err)
	intruder := newUser("b@x.com")
	_, err = users.Create(ctx, intruder)
	require.NoError(t, err)

	country := newCountry(owner.ID, "Chile")
	country.Notes = "Atacama"
	id, err := countries.Create(ctx, country)
	require.NoError(t, err)

	got, err := countries.GetForUser(ctx, owner.ID, id)
	require.NoError(t, err)
	assert.Equal(t, "Chile", got.CommonName)
	assert.Equal(t, "Atacama", got.Notes)
	assert.False(t, got.Visited)
	assert.EqualValues(t, 1000, got.Population)

	_, err = countries.GetForUser(ctx, intruder.ID, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	hijack := *got
	hijack.UserID = intruder.ID
	hijack.Visited = true
	assert.ErrorIs(t, countries.Update(ctx, &hijack), repository.ErrNotFound)
	assert.ErrorIs(t, countries.Delete(ctx, intruder.ID, id), repository.ErrNotFound)

	got.Visited = true
	require.NoError(t, countries.Update(ctx, got))
	reloaded, err := countries.GetForUser(ctx, owner.ID, id)
	require.NoError(t, err)
	assert.True(t, reloaded.Visited)

	require.NoError(t, countries.Delete(ctx, owner.ID, id))
	_, err = countries.GetForUser(ctx, owner.ID, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCountryRepository_ListEmpty(t *testing.T) {
	_, _, countries := openTestDB(t)

	list, err := countries.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestCountryRepository_RequiresExistingUser(t *testing.T) {
	_, _, countries := openTestDB(t)

	_, err := countries.Create(context.Background(), newCountry(12345, "Chile"))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
