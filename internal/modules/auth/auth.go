// Package auth exchanges the configured access token for short-lived
// session JWTs so the extension does not have to hold the long-lived
// credential in memory.
package auth

import (
	"crypto/subtle"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paperlens/core/internal/middleware"
	jwtpkg "github.com/paperlens/core/internal/pkg/jwt"
	"github.com/paperlens/core/internal/pkg/response"
)

const sessionTTL = 30 * 24 * time.Hour

type Handler struct {
	accessToken string
}

func NewHandler(accessToken string) *Handler {
	return &Handler{accessToken: accessToken}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/auth")
	g.POST("/token", h.exchange)
	g.GET("/check", authMW, h.check)
}

type exchangeDTO struct {
	Token string `json:"token" binding:"required"`
}

// POST /auth/token — trade the access token for a session JWT.
func (h *Handler) exchange(c *gin.Context) {
	var dto exchangeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	token := middleware.NormalizeToken(dto.Token)
	if h.accessToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.accessToken)) != 1 {
		response.Unauthorized(c)
		return
	}

	signed, err := jwtpkg.Sign("session", sessionTTL)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{
		"token":      signed,
		"expires_at": time.Now().Add(sessionTTL).Format(time.RFC3339),
	})
}

// GET /auth/check — report whether the presented token is valid.
func (h *Handler) check(c *gin.Context) {
	response.OK(c, gin.H{"ok": true})
}
