package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"travel-tracker/internal/auth"
	"travel-tracker/internal/repository"
	"travel-tracker/internal/repository/sqlite"
)

type fixture struct {
	users      repository.UserRepository
	countries  repository.CountryRepository
	tokens     *auth.TokenManager
	userSvc    UserService
	countrySvc CountryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "travel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepository(db)
	countries := sqlite.NewCountryRepository(db)
	ctx := context.Background()
	require.NoError(t, users.Init(ctx))
	require.NoError(t, countries.Init(ctx))

	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	return &fixture{
		users:      users,
		countries:  countries,
		tokens:     tokens,
		userSvc:    NewUserService(users, auth.NewBcryptHasher(bcrypt.MinCost), tokens),
		countrySvc: NewCountryService(countries),
	}
}

func validRegistration(email string) RegisterInput {
	return RegisterInput{
		Email:      email,
		FullName:   "Ana Souza",
		Street:     "Rua das Flores",
		State:      "PE",
		City:       "Recife",
		Number:     "100",
		PostalCode: "50000-000",
		Password:   "s3nha-forte",
	}
}

func (f *fixture) register(t *testing.T, email string) int64 {
	t.Helper()
	user, err := f.userSvc.Register(context.Background(), validRegistration(email))
	require.NoError(t, err)
	return user.ID
}
