package service

import (
	"context"
	"errors"
	"strings"

	"travel-tracker/internal/apperr"
	"travel-tracker/internal/domain"
	"travel-tracker/internal/repository"
)

const (
	msgCountryFieldsRequired = "Todos os campos obrigatórios devem ser preenchidos"
	msgCountryNotOwned       = "País não encontrado ou não pertence ao usuário"
)

// CountryInput carries the fields of a country of interest. On update, empty
// strings and a zero population keep the stored value, while Visited and
// Notes are only applied when present.
type CountryInput struct {
	CommonName     string  `json:"nome_comum" validate:"required"`
	OfficialName   string  `json:"nome_oficial" validate:"required"`
	Region         string  `json:"regiao" validate:"required"`
	Currency       string  `json:"moeda" validate:"required"`
	Capital        string  `json:"capital" validate:"required"`
	Continent      string  `json:"continente" validate:"required"`
	FlagPNG        string  `json:"link_png" validate:"required"`
	GoogleMapsURL  string  `json:"link_googlemaps" validate:"required"`
	Population     int64   `json:"populacao" validate:"required"`
	OfficialNameEN string  `json:"official_name" validate:"required"`
	Visited        *bool   `json:"visited"`
	Notes          *string `json:"observacoes"`
}

// CountryService manages the countries of interest owned by a user.
type CountryService interface {
	Create(ctx context.Context, userID int64, input CountryInput) (*domain.Country, error)
	List(ctx context.Context, userID int64) ([]domain.Country, error)
	Get(ctx context.Context, userID, id int64) (*domain.Country, error)
	Update(ctx context.Context, userID, id int64, input CountryInput) (*domain.Country, error)
	Delete(ctx context.Context, userID, id int64) error
}

type countryService struct {
	countries repository.CountryRepository
}

func NewCountryService(countries repository.CountryRepository) CountryService {
	return &countryService{countries: countries}
}

func (s *countryService) Create(ctx context.Context, userID int64, input CountryInput) (*domain.Country, error) {
	failed, err := failedTags(input)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(failed) > 0 {
		return nil, apperr.Validation(msgCountryFieldsRequired)
	}

	country := &domain.Country{
		UserID:         userID,
		CommonName:     input.CommonName,
		OfficialName:   input.OfficialName,
		Region:         input.Region,
		Currency:       input.Currency,
		Capital:        input.Capital,
		Continent:      input.Continent,
		FlagPNG:        input.FlagPNG,
		GoogleMapsURL:  input.GoogleMapsURL,
		Population:     input.Population,
		OfficialNameEN: input.OfficialNameEN,
	}
	if input.Visited != nil {
		country.Visited = *input.Visited
	}
	if input.Notes != nil {
		country.Notes = *input.Notes
	}

	if _, err := s.countries.Create(ctx, country); err != nil {
		// the session outlived its account
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(msgUserNotFound)
		}
		return nil, apperr.Internal(err)
	}
	return country, nil
}

func (s *countryService) List(ctx context.Context, userID int64) ([]domain.Country, error) {
	list, err := s.countries.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

func (s *countryService) Get(ctx context.Context, userID, id int64) (*domain.Country, error) {
	country, err := s.countries.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, countryErr(err)
	}
	return country, nil
}

func (s *countryService) Update(ctx context.Context, userID, id int64, input CountryInput) (*domain.Country, error) {
	country, err := s.countries.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, countryErr(err)
	}

	country.CommonName = keep(input.CommonName, country.CommonName)
	country.OfficialName = keep(input.OfficialName, country.OfficialName)
	country.Region = keep(input.Region, country.Region)
	country.Currency = keep(input.Currency, country.Currency)
	country.Capital = keep(input.Capital, country.Capital)
	country.Continent = keep(input.Continent, country.Continent)
	country.FlagPNG = keep(input.FlagPNG, country.FlagPNG)
	country.GoogleMapsURL = keep(input.GoogleMapsURL, country.GoogleMapsURL)
	country.OfficialNameEN = keep(input.OfficialNameEN, country.OfficialNameEN)
	if input.Population != 0 {
		country.Population = input.Population
	}
	if input.Visited != nil {
		country.Visited = *input.Visited
	}
	if input.Notes != nil {
		country.Notes = *input.Notes
	}

	if err := s.countries.Update(ctx, country); err != nil {
		return nil, countryErr(err)
	}
	return country, nil
}

func (s *countryService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.countries.Delete(ctx, userID, id); err != nil {
		return countryErr(err)
	}
	return nil
}

func countryErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgCountryNotOwned)
	}
	return apperr.Internal(err)
}

// notesOrNil keeps notes only when they carry text.
func notesOrNil(notes string) *string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil
	}
	return &notes
}
