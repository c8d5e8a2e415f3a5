package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"travel-tracker/internal/apperr"
	"travel-tracker/internal/service"
)

const msgPurgeFailed = "Falha ao remover exportações"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

// bindJSON decodes the request body into v. An empty body leaves v zeroed so
// the service reports the missing fields.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return false
	}
	return true
}

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, userToResponse(user))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.observeLogin(apperr.KindOf(err).String())
		h.respondError(c, err)
		return
	}
	h.metrics.observeLogin("success")

	c.JSON(http.StatusOK, gin.H{
		"message": "Login realizado com sucesso",
		"token":   res.Token,
	})
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) updateUser(c *gin.Context) {
	var req service.UpdateUserInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Update(c.Request.Context(), identityFrom(c).UserID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	userID := identityFrom(c).UserID

	if err := h.users.Delete(c.Request.Context(), userID); err != nil {
		h.respondError(c, err)
		return
	}

	resp := gin.H{"message": "Usuário deletado com sucesso"}
	if h.exports != nil {
		purgeCtx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		if err := h.exports.Purge(purgeCtx, userID); err != nil {
			h.requestLog(c).WithError(err).Warn("purge exports of deleted user")
			resp["warnings"] = []string{msgPurgeFailed}
		}
	}
	c.JSON(http.StatusOK, resp)
}
