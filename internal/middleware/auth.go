package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/paperlens/core/internal/pkg/jwt"
	"github.com/paperlens/core/internal/pkg/response"
)

const ContextKeySubject = "auth_subject"

// Auth returns a middleware that accepts either the configured access token
// or a session JWT issued by the auth endpoint.
func Auth(accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, err := ValidateToken(accessToken, extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeySubject, subject)
		c.Next()
	}
}

// ValidateToken checks a raw token against the configured access token,
// falling back to JWT validation. Returns the session subject.
func ValidateToken(accessToken, rawToken string) (string, error) {
	token := NormalizeToken(rawToken)
	if token == "" {
		return "", errors.New("token is required")
	}

	if accessToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(accessToken)) == 1 {
		return "access-token", nil
	}

	claims, err := jwt.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// OptionalAuth validates a token when one is present but never rejects
// the request. Downstream middleware can check IsAuthenticated.
func OptionalAuth(accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if subject, err := ValidateToken(accessToken, extractToken(c)); err == nil {
			c.Set(ContextKeySubject, subject)
		}
		c.Next()
	}
}

// IsAuthenticated reports whether the request carries a validated token.
func IsAuthenticated(c *gin.Context) bool {
	v, _ := c.Get(ContextKeySubject)
	subject, _ := v.(string)
	return subject != ""
}

func extractToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth != "" {
		return NormalizeToken(auth)
	}
	return NormalizeToken(c.Query("token"))
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
