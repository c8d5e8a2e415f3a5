package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"travel-tracker/internal/apperr"
	"travel-tracker/internal/domain"
	"travel-tracker/internal/storage"
)

// UserResponse is the public view of an account. It has no password field.
type UserResponse struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"nome_completo"`
	Street     string `json:"endereco"`
	City       string `json:"cidade"`
	State      string `json:"estado"`
	Number     string `json:"numero"`
	PostalCode string `json:"cep"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type CountryResponse struct {
	ID             int64  `json:"id"`
	UserID         int64  `json:"usuarioId"`
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
	Notes          string `json:"observacoes"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		FullName:   user.FullName,
		Street:     user.Street,
		City:       user.City,
		State:      user.State,
		Number:     user.Number,
		PostalCode: user.PostalCode,
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  user.UpdatedAt.Format(time.RFC3339),
	}
}

func countryToResponse(country domain.Country) CountryResponse {
	return CountryResponse{
		ID:             country.ID,
		UserID:         country.UserID,
		CommonName:     country.CommonName,
		OfficialName:   country.OfficialName,
		Region:         country.Region,
		Currency:       country.Currency,
		Capital:        country.Capital,
		Continent:      country.Continent,
		FlagPNG:        country.FlagPNG,
		GoogleMapsURL:  country.GoogleMapsURL,
		Population:     country.Population,
		OfficialNameEN: country.OfficialNameEN,
		Visited:        country.Visited,
		Notes:          country.Notes,
		CreatedAt:      country.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      country.UpdatedAt.Format(time.RFC3339),
	}
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the client-facing message of err. Causes of internal
// and upstream failures are logged, never returned.
func (h *Handler) respondError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	status := statusFor(appErr.Kind)

	switch appErr.Kind {
	case apperr.KindInternal:
		h.requestLog(c).Errorf("%+v", appErr.Err)
	case apperr.KindUpstream:
		h.requestLog(c).WithError(appErr.Err).Warn(appErr.Message)
	}

	c.JSON(status, gin.H{"error": appErr.Message})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidID})
		return 0, false
	}
	return id, true
}
