package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperlens/core/internal/middleware"
	jwtpkg "github.com/paperlens/core/internal/pkg/jwt"
)

func newTestRouter(accessToken string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("")
	NewHandler(accessToken).RegisterRoutes(api, middleware.Auth(accessToken))
	return r
}

func postToken(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestExchangeIssuesSessionToken(t *testing.T) {
	r := newTestRouter("secret-token")

	w := postToken(t, r, `{"token":"secret-token"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)
	assert.Contains(t, w.Body.String(), `"expires_at"`)
}

func TestExchangeAcceptsBearerPrefix(t *testing.T) {
	r := newTestRouter("secret-token")

	w := postToken(t, r, `{"token":"Bearer secret-token"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExchangeRejectsWrongToken(t *testing.T) {
	r := newTestRouter("secret-token")

	w := postToken(t, r, `{"token":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExchangeRejectsWhenUnconfigured(t *testing.T) {
	r := newTestRouter("")

	w := postToken(t, r, `{"token":"anything"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckAcceptsAccessTokenAndSessionJWT(t *testing.T) {
	r := newTestRouter("secret-token")

	req := httptest.NewRequest(http.MethodGet, "/auth/check", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	session, err := jwtpkg.Sign("session", sessionTTL)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/auth/check", nil)
	req.Header.Set("Authorization", "Bearer "+session)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckRejectsMissingToken(t *testing.T) {
	r := newTestRouter("secret-token")

	req := httptest.NewRequest(http.MethodGet, "/auth/check", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
