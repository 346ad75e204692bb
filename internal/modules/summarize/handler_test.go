package summarize

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperlens/core/internal/config"
	"github.com/paperlens/core/internal/modules/history"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(svc).RegisterRoutes(router.Group("/api"), func(c *gin.Context) { c.Next() })
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGenerateEndpoint(t *testing.T) {
	srv, _ := webhookServer(t, "## Result")
	cfg := testConfig(config.Provider{ID: "n8n", Type: "webhook", Endpoint: srv.URL, Enabled: true})
	svc := NewService(nil, cfg, history.NewService(newMemBlobs(), 0, 0), nil, nil, nil)
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/summaries/generate", map[string]string{
		"title": "A Paper",
		"url":   "https://arxiv.org/abs/2401.00001",
		"text":  "The abstract.",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result GenerateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "## Result", result.Markdown)
	assert.Equal(t, "2401.00001", result.PaperID)
}

func TestGenerateEndpointRejectsMissingFields(t *testing.T) {
	cfg := testConfig(config.Provider{ID: "n8n", Type: "webhook", Endpoint: "http://x", Enabled: true})
	svc := NewService(nil, cfg, history.NewService(newMemBlobs(), 0, 0), nil, nil, nil)
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/summaries/generate", map[string]string{"title": "no text"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateEndpointNoProvider(t *testing.T) {
	svc := NewService(nil, testConfig(), history.NewService(newMemBlobs(), 0, 0), nil, nil, nil)
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/summaries/generate", map[string]string{"title": "t", "text": "a"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "provider")
}

type sseEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev sseEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	return events
}

func TestStreamEndpoint(t *testing.T) {
	srv, _ := webhookServer(t, "streamed summary")
	cfg := testConfig(config.Provider{ID: "n8n", Type: "webhook", Endpoint: srv.URL, Enabled: true})
	svc := NewService(nil, cfg, history.NewService(newMemBlobs(), 0, 0), nil, nil, nil)
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/summaries/stream", map[string]string{"title": "t", "text": "a"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseSSE(t, rec.Body.String())
	require.NotEmpty(t, events)

	var tokens string
	for _, ev := range events {
		if ev.Type == "token" {
			var chunk string
			require.NoError(t, json.Unmarshal(ev.Data, &chunk))
			tokens += chunk
		}
	}
	assert.Equal(t, "streamed summary", tokens)

	last := events[len(events)-1]
	require.Equal(t, "done", last.Type)
	var result GenerateResult
	require.NoError(t, json.Unmarshal(last.Data, &result))
	assert.Equal(t, "streamed summary", result.Markdown)
}

func TestStreamEndpointReportsError(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"message":"workflow down"}`))
	}))
	defer failing.Close()

	cfg := testConfig(config.Provider{ID: "n8n", Type: "webhook", Endpoint: failing.URL, Enabled: true})
	svc := NewService(nil, cfg, history.NewService(newMemBlobs(), 0, 0), nil, nil, nil)
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/summaries/stream", map[string]string{"title": "t", "text": "a"})
	events := parseSSE(t, rec.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, "error", events[len(events)-1].Type)
}

func TestGetStoredNotFound(t *testing.T) {
	svc := NewService(nil, testConfig(), history.NewService(newMemBlobs(), 0, 0), nil, nil, nil)
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/summaries/stored?paper_id=p1&variant=abstract", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
