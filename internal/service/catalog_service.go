package service

import (
	"context"
	"errors"
	"strings"

	"travel-tracker/internal/apperr"
	"travel-tracker/internal/countries"
	"travel-tracker/internal/domain"
)

const (
	msgCountryNameRequired = "Nome do país é obrigatório"
	msgRegionRequired      = "Nome da região é obrigatório"
	msgCatalogNotFound     = "País não encontrado"
	msgCatalogSaveNotFound = "País não encontrado na API REST Countries"
	msgCatalogUnavailable  = "Falha ao consultar a API REST Countries"
)

// CountryCatalog is the read side of the public country catalog.
type CountryCatalog interface {
	All(ctx context.Context) ([]countries.Summary, error)
	ByName(ctx context.Context, name string) (*countries.Details, error)
	ByRegion(ctx context.Context, region string) ([]countries.Summary, error)
}

// SearchFilter narrows a catalog search. A nil Limit returns every match.
type SearchFilter struct {
	Region    string
	Subregion string
	Limit     *int
}

// SavedCountry pairs the stored country with the catalog entry it came from.
type SavedCountry struct {
	Country  *domain.Country
	Original *countries.Details
}

// CatalogService browses the public catalog and copies entries into a user's list.
type CatalogService interface {
	All(ctx context.Context) ([]countries.Summary, error)
	Details(ctx context.Context, name string) (*countries.Details, error)
	ByRegion(ctx context.Context, region string) ([]countries.Summary, error)
	Search(ctx context.Context, filter SearchFilter) ([]countries.Summary, error)
	Save(ctx context.Context, userID int64, name, notes string) (*SavedCountry, error)
}

type catalogService struct {
	catalog   CountryCatalog
	countries CountryService
}

func NewCatalogService(catalog CountryCatalog, countries CountryService) CatalogService {
	return &catalogService{
		catalog:   catalog,
		countries: countries,
	}
}

func (s *catalogService) All(ctx context.Context) ([]countries.Summary, error) {
	list, err := s.catalog.All(ctx)
	if err != nil {
		return nil, apperr.Upstream(msgCatalogUnavailable, err)
	}
	return list, nil
}

func (s *catalogService) Details(ctx context.Context, name string) (*countries.Details, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation(msgCountryNameRequired)
	}
	details, err := s.catalog.ByName(ctx, name)
	if err != nil {
		return nil, catalogErr(err, msgCatalogNotFound)
	}
	return details, nil
}

func (s *catalogService) ByRegion(ctx context.Context, region string) ([]countries.Summary, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return nil, apperr.Validation(msgRegionRequired)
	}
	list, err := s.catalog.ByRegion(ctx, region)
	if err != nil {
		// an unknown region is an empty region
		if errors.Is(err, countries.ErrNotFound) {
			return []countries.Summary{}, nil
		}
		return nil, apperr.Upstream(msgCatalogUnavailable, err)
	}
	return list, nil
}

func (s *catalogService) Search(ctx context.Context, filter SearchFilter) ([]countries.Summary, error) {
	var (
		list []countries.Summary
		err  error
	)
	if region := strings.TrimSpace(filter.Region); region != "" {
		list, err = s.ByRegion(ctx, region)
	} else {
		list, err = s.All(ctx)
	}
	if err != nil {
		return nil, err
	}

	list = countries.FilterSubregion(list, filter.Subregion)
	if filter.Limit != nil && *filter.Limit >= 0 && *filter.Limit < len(list) {
		list = list[:*filter.Limit]
	}
	return list, nil
}

func (s *catalogService) Save(ctx context.Context, userID int64, name, notes string) (*SavedCountry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation(msgCountryNameRequired)
	}

	details, err := s.catalog.ByName(ctx, name)
	if err != nil {
		return nil, catalogErr(err, msgCatalogSaveNotFound)
	}

	input := countryFromDetails(details)
	input.Notes = notesOrNil(notes)

	saved, err := s.countries.Create(ctx, userID, input)
	if err != nil {
		return nil, err
	}
	return &SavedCountry{Country: saved, Original: details}, nil
}

// countryFromDetails keeps the catalog fields a country of interest stores.
func countryFromDetails(d *countries.Details) CountryInput {
	visited := false
	return CountryInput{
		CommonName:     d.CommonName,
		OfficialName:   d.OfficialName,
		Region:         d.Region,
		Currency:       d.Currency,
		Capital:        d.Capital,
		Continent:      d.Continent,
		FlagPNG:        d.FlagPNG,
		GoogleMapsURL:  d.GoogleMapsURL,
		Population:     d.Population,
		OfficialNameEN: d.OfficialName,
		Visited:        &visited,
	}
}

func catalogErr(err error, notFound string) error {
	if errors.Is(err, countries.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	return apperr.Upstream(msgCatalogUnavailable, err)
}
