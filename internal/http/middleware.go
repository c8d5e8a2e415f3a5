package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"travel-tracker/internal/auth"
)

const (
	requestIDHeader = "X-Request-ID"
	identityKey     = "identity"
	requestIDKey    = "request_id"

	msgTokenMissing = "Token não fornecido"
	msgTokenInvalid = "Token inválido"
)

// requireSession admits requests carrying a valid bearer token and stores the
// recovered identity on the context.
func requireSession(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgTokenMissing})
			return
		}

		identity, err := tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgTokenInvalid})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// bearerToken strips the scheme word; a header without it carries no token.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// identityFrom returns the identity stored by requireSession.
func identityFrom(c *gin.Context) auth.Identity {
	identity, _ := c.MustGet(identityKey).(auth.Identity)
	return identity
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"duration":   time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		})
		if identity, ok := c.Get(identityKey); ok {
			if id, ok := identity.(auth.Identity); ok {
				entry = entry.WithField("user_id", id.UserID)
			}
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("HTTP request")
		case status >= http.StatusBadRequest:
			entry.Warn("HTTP request")
		default:
			entry.Info("HTTP request")
		}
	}
}

// requestLog returns a logger entry tagged with the current request id.
func (h *Handler) requestLog(c *gin.Context) *logrus.Entry {
	return h.log.WithField("request_id", c.GetString(requestIDKey))
}
