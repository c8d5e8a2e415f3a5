package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"travel-tracker/internal/apperr"
	"travel-tracker/internal/repository"
	"travel-tracker/internal/storage"
)

// ErrExportDisabled is returned when no bucket is configured.
var ErrExportDisabled = errors.New("export storage not configured")

// ExportConfig locates exported documents in object storage.
type ExportConfig struct {
	Bucket    string
	KeyPrefix string
	URLTTL    time.Duration
}

// ExportResult describes an uploaded export and its temporary download link.
type ExportResult struct {
	Key       string
	Location  string
	URL       string
	ExpiresAt time.Time
	Total     int
}

// ExportService snapshots a user's countries of interest to object storage.
type ExportService interface {
	Export(ctx context.Context, userID int64) (*ExportResult, error)
	List(ctx context.Context, userID int64) ([]storage.ObjectInfo, error)
	Purge(ctx context.Context, userID int64) error
}

type exportService struct {
	countries repository.CountryRepository
	store     storage.Service
	cfg       ExportConfig
	now       func() time.Time
}

func NewExportService(countries repository.CountryRepository, store storage.Service, cfg ExportConfig) ExportService {
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = 15 * time.Minute
	}
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	return &exportService{
		countries: countries,
		store:     store,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type exportDocument struct {
	UserID     int64             `json:"usuario_id"`
	ExportedAt time.Time         `json:"exported_at"`
	Total      int               `json:"total"`
	Countries  []exportedCountry `json:"paises"`
}

type exportedCountry struct {
	ID             int64  `json:"id"`
	CommonName     string `json:"nome_comum"`
	OfficialName   string `json:"nome_oficial"`
	Region         string `json:"regiao"`
	Currency       string `json:"moeda"`
	Capital        string `json:"capital"`
	Continent      string `json:"continente"`
	FlagPNG        string `json:"link_png"`
	GoogleMapsURL  string `json:"link_googlemaps"`
	Population     int64  `json:"populacao"`
	OfficialNameEN string `json:"official_name"`
	Visited        bool   `json:"visited"`
	Notes          string `json:"observacoes,omitempty"`
}

func (s *exportService) Export(ctx context.Context, userID int64) (*ExportResult, error) {
	if s.store == nil || s.cfg.Bucket == "" {
		return nil, apperr.Internal(ErrExportDisabled)
	}

	list, err := s.countries.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	doc := exportDocument{
		UserID:     userID,
		ExportedAt: s.now(),
		Total:      len(list),
		Countries:  make([]exportedCountry, len(list)),
	}
	for i, c := range list {
		doc.Countries[i] = exportedCountry{
			ID:             c.ID,
			CommonName:     c.CommonName,
			OfficialName:   c.OfficialName,
			Region:         c.Region,
			Currency:       c.Currency,
			Capital:        c.Capital,
			Continent:      c.Continent,
			FlagPNG:        c.FlagPNG,
			GoogleMapsURL:  c.GoogleMapsURL,
			Population:     c.Population,
			OfficialNameEN: c.OfficialNameEN,
			Visited:        c.Visited,
			Notes:          c.Notes,
		}
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("encode export: %w", err))
	}

	key := path.Join(s.userPrefix(userID), uuid.NewString()+".json")
	location, err := s.store.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, apperr.Internal(err)
	}

	url, err := s.store.GetObjectURL(ctx, s.cfg.Bucket, key, s.cfg.URLTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &ExportResult{
		Key:       key,
		Location:  location,
		URL:       url,
		ExpiresAt: doc.ExportedAt.Add(s.cfg.URLTTL),
		Total:     doc.Total,
	}, nil
}

func (s *exportService) List(ctx context.Context, userID int64) ([]storage.ObjectInfo, error) {
	if s.store == nil || s.cfg.Bucket == "" {
		return nil, apperr.Internal(ErrExportDisabled)
	}
	objects, err := s.store.ListObjects(ctx, s.cfg.Bucket, s.userPrefix(userID)+"/")
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return objects, nil
}

// Purge removes every export of userID. It is a no-op when storage is disabled.
func (s *exportService) Purge(ctx context.Context, userID int64) error {
	if s.store == nil || s.cfg.Bucket == "" {
		return nil
	}
	if err := s.store.DeletePrefix(ctx, s.cfg.Bucket, s.userPrefix(userID)+"/"); err != nil {
		return fmt.Errorf("purge exports of user %d: %w", userID, err)
	}
	return nil
}

func (s *exportService) userPrefix(userID int64) string {
	return path.Join(s.cfg.KeyPrefix, fmt.Sprintf("user-%d", userID))
}
