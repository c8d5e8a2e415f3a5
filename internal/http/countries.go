package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"travel-tracker/internal/service"
)

func (h *Handler) createCountry(c *gin.Context) {
	var req service.CountryInput
	if !bindJSON(c, &req) {
		return
	}

	country, err := h.countries.Create(c.Request.Context(), identityFrom(c).UserID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, countryToResponse(*country))
}

func (h *Handler) listCountries(c *gin.Context) {
	list, err := h.countries.List(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]CountryResponse, len(list))
	for i := range list {
		resp[i] = countryToResponse(list[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getCountry(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	country, err := h.countries.Get(c.Request.Context(), identityFrom(c).UserID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, countryToResponse(*country))
}

func (h *Handler) updateCountry(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.CountryInput
	if !bindJSON(c, &req) {
		return
	}

	country, err := h.countries.Update(c.Request.Context(), identityFrom(c).UserID, id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, countryToResponse(*country))
}

func (h *Handler) deleteCountry(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.countries.Delete(c.Request.Context(), identityFrom(c).UserID, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "País deletado com sucesso"})
}

func (h *Handler) exportCountries(c *gin.Context) {
	res, err := h.exports.Export(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"key":        res.Key,
		"location":   res.Location,
		"url":        res.URL,
		"expires_at": res.ExpiresAt.Format(time.RFC3339),
		"total":      res.Total,
	})
}

func (h *Handler) listExports(c *gin.Context) {
	objects, err := h.exports.List(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

type saveCountryRequest struct {
	Notes string `json:"observacoes"`
}

func (h *Handler) catalogAll(c *gin.Context) {
	list, err := h.catalog.All(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "total": len(list), "data": list})
}

func (h *Handler) catalogDetails(c *gin.Context) {
	details, err := h.catalog.Details(c.Request.Context(), c.Param("countryName"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": details})
}

func (h *Handler) catalogRegion(c *gin.Context) {
	list, err := h.catalog.ByRegion(c.Request.Context(), c.Param("region"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "total": len(list), "data": list})
}

func (h *Handler) catalogSearch(c *gin.Context) {
	filter := service.SearchFilter{
		Region:    c.Query("region"),
		Subregion: c.Query("subregion"),
	}
	filters := gin.H{"region": nil, "subregion": nil, "limit": nil}
	if filter.Region != "" {
		filters["region"] = filter.Region
	}
	if filter.Subregion != "" {
		filters["subregion"] = filter.Subregion
	}
	// a non-numeric limit is ignored
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		filters["limit"] = raw
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Limit = &n
		}
	}

	list, err := h.catalog.Search(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "total": len(list), "filters": filters, "data": list})
}

func (h *Handler) catalogSave(c *gin.Context) {
	var req saveCountryRequest
	if !bindJSON(c, &req) {
		return
	}

	saved, err := h.catalog.Save(c.Request.Context(), identityFrom(c).UserID, c.Param("countryName"), req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "País adicionado à lista de interesse com sucesso",
		"data": gin.H{
			"saved_country": countryToResponse(*saved.Country),
			"original_data": saved.Original,
		},
	})
}
