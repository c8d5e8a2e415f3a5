package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"travel-tracker/internal/auth"
	"travel-tracker/internal/service"
)

const (
	apiVersion       = "1.0.0"
	msgRouteNotFound = "Rota não encontrada"
	msgInvalidID     = "ID inválido"
	msgInvalidBody   = "Corpo da requisição inválido"
)

// TokenVerifier recovers the identity carried by a session token.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// Options carries the collaborators of a Handler. Exports may be nil, in
// which case the export routes are not registered.
type Options struct {
	Users     service.UserService
	Countries service.CountryService
	Catalog   service.CatalogService
	Exports   service.ExportService
	Tokens    TokenVerifier
	Metrics   *Metrics
	Logger    *logrus.Logger
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	countries service.CountryService
	catalog   service.CatalogService
	exports   service.ExportService
	tokens    TokenVerifier
	metrics   *Metrics
	log       *logrus.Logger
}

func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		users:     opts.Users,
		countries: opts.Countries,
		catalog:   opts.Catalog,
		exports:   opts.Exports,
		tokens:    opts.Tokens,
		metrics:   opts.Metrics,
		log:       logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.log))
	router.Use(corsMiddleware())
	if h.metrics != nil {
		router.Use(h.metrics.middleware())
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	router.GET("/", h.info)
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": msgRouteNotFound})
	})

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		api.POST("/usuarios", h.register)
		api.POST("/usuarios/login", h.login)

		session := api.Group("", requireSession(h.tokens))
		{
			session.GET("/usuarios", h.getUser)
			session.PUT("/usuarios", h.updateUser)
			session.DELETE("/usuarios", h.deleteUser)

			session.POST("/paises", h.createCountry)
			session.GET("/paises", h.listCountries)
			if h.exports != nil {
				session.POST("/paises/export", h.exportCountries)
				session.GET("/paises/exports", h.listExports)
			}
			session.GET("/paises/:id", h.getCountry)
			session.PUT("/paises/:id", h.updateCountry)
			session.DELETE("/paises/:id", h.deleteCountry)

			catalog := session.Group("/rest-countries")
			catalog.GET("/all", h.catalogAll)
			catalog.GET("/name/:countryName", h.catalogDetails)
			catalog.GET("/details/:countryName", h.catalogDetails)
			catalog.GET("/region/:region", h.catalogRegion)
			catalog.GET("/search", h.catalogSearch)
			catalog.POST("/save/:countryName", h.catalogSave)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", requestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) info(c *gin.Context) {
	endpoints := gin.H{
		"usuarios":       "/api/usuarios",
		"paises":         "/api/paises",
		"rest_countries": "/api/rest-countries",
		"health":         "/api/health",
	}
	if h.exports != nil {
		endpoints["export"] = "/api/paises/export"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "API Fullstack funcionando!",
		"version":   apiVersion,
		"endpoints": endpoints,
	})
}
