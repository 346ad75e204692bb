package summarize

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperlens/core/internal/config"
	"github.com/paperlens/core/internal/models"
	"github.com/paperlens/core/internal/modules/gateway"
	"github.com/paperlens/core/internal/modules/history"
)

type memBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemBlobs() *memBlobs { return &memBlobs{data: map[string][]byte{}} }

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	return raw, ok, nil
}

func (m *memBlobs) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func testConfig(providers ...config.Provider) *config.AppConfig {
	return &config.AppConfig{
		Summary: config.SummaryConfig{
			Language:         "korean",
			AbstractPrompt:   "Summarize {{title}} ({{url}}) in {{language}}: {{abstract}}",
			FullPrompt:       "Analyze {{title}} in {{language}}: {{fullText}}",
			MaxFullTextChars: 400_000,
			HeadingCollapse:  3,
		},
		Providers: providers,
	}
}

// webhookServer answers the n8n-style batch protocol and records the
// last message body it received.
func webhookServer(t *testing.T, result string) (*httptest.Server, *string) {
	t.Helper()
	var lastMessage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(raw, &body))
		lastMessage = body.Message
		json.NewEncoder(w).Encode(map[string]string{"result": result})
	}))
	t.Cleanup(srv.Close)
	return srv, &lastMessage
}

func TestGenerateSavesHistory(t *testing.T) {
	srv, _ := webhookServer(t, "# Summary\n\nFindings.")
	cfg := testConfig(config.Provider{ID: "n8n", Name: "n8n", Type: "webhook", Endpoint: srv.URL, Enabled: true})
	historySvc := history.NewService(newMemBlobs(), 0, 0)
	svc := NewService(nil, cfg, historySvc, nil, nil, nil)

	result, err := svc.Generate(context.Background(), GenerateRequest{
		Title: "Attention Is All You Need",
		URL:   "https://arxiv.org/abs/1706.03762",
		Text:  "We propose the Transformer.",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "# Summary\n\nFindings.", result.Markdown)
	assert.Equal(t, models.VariantAbstract, result.Variant)
	assert.Equal(t, "1706.03762", result.PaperID, "paper id derived from the arXiv url")
	assert.Equal(t, "n8n", result.ProviderID)
	assert.Nil(t, result.Usage, "batch webhook reports no usage")
	assert.Nil(t, result.Cost)

	entries, err := historySvc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1706.03762", entries[0].PaperID)
	assert.Equal(t, models.VariantAbstract, entries[0].Variant)
	assert.Equal(t, "# Summary\n\nFindings.", entries[0].Markdown)
}

func TestGenerateNoEnabledProvider(t *testing.T) {
	cfg := testConfig(config.Provider{ID: "off", Type: "webhook", Endpoint: "http://x", Enabled: false})
	svc := NewService(nil, cfg, history.NewService(newMemBlobs(), 0, 0), nil, nil, nil)

	_, err := svc.Generate(context.Background(), GenerateRequest{Title: "t", Text: "a"}, nil)
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestGenerateSelectsProviderByID(t *testing.T) {
	first, _ := webhookServer(t, "from first")
	second, _ := webhookServer(t, "from second")
	cfg := testConfig(
		config.Provider{ID: "a", Type: "webhook", Endpoint: first.URL, Enabled: true},
		config.Provider{ID: "b", Type: "webhook", Endpoint: second.URL, Enabled: true},
	)
	svc := NewService(nil, cfg, history.NewService(newMemBlobs(), 0, 0), nil, nil, nil)

	result, err := svc.Generate(context.Background(), GenerateRequest{Title: "t", Text: "a", ProviderID: "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "from second", result.Markdown)
	assert.Equal(t, "b", result.ProviderID)
}

func TestGenerateRejectsUnknownVariant(t *testing.T) {
	cfg := testConfig(config.Provider{ID: "a", Type: "webhook", Endpoint: "http://x", Enabled: true})
	svc := NewService(nil, cfg, history.NewService(newMemBlobs(), 0, 0), nil, nil, nil)

	_, err := svc.Generate(context.Background(), GenerateRequest{Title: "t", Text: "a", Variant: "extended"}, nil)
	assert.Error(t, err)
}

func TestGenerateFullVariantCapsText(t *testing.T) {
	srv, lastMessage := webhookServer(t, "ok")
	cfg := testConfig(config.Provider{ID: "a", Type: "webhook", Endpoint: srv.URL, Enabled: true})
	cfg.Summary.MaxFullTextChars = 100
	svc := NewService(nil, cfg, history.NewService(newMemBlobs(), 0, 0), nil, nil, nil)

	_, err := svc.Generate(context.Background(), GenerateRequest{
		Title:   "t",
		Text:    strings.Repeat("가", 500),
		Variant: "full",
	}, nil)
	require.NoError(t, err)
	// The webhook message embeds the prompt text; the body must have
	// been capped before it went out.
	assert.Less(t, strings.Count(*lastMessage, "가"), 101)
}

type recordingHub struct {
	mu     sync.Mutex
	events []string
	frames []gateway.StreamFrame
}

func (r *recordingHub) BroadcastFrame(event string, frame gateway.StreamFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.frames = append(r.frames, frame)
}

func TestGenerateBroadcastsFrames(t *testing.T) {
	srv, _ := webhookServer(t, "summary text")
	cfg := testConfig(config.Provider{ID: "n8n", Type: "webhook", Endpoint: srv.URL, Enabled: true})
	svc := NewService(nil, cfg, history.NewService(newMemBlobs(), 0, 0), nil, nil, nil)
	hub := &recordingHub{}
	svc.AttachHub(hub)

	_, err := svc.Generate(context.Background(), GenerateRequest{
		Title: "t",
		URL:   "https://arxiv.org/abs/2401.00001",
		Text:  "a",
	}, nil)
	require.NoError(t, err)

	require.Equal(t, []string{gateway.EventDelta, gateway.EventDone}, hub.events)
	assert.Equal(t, "2401.00001", hub.frames[0].PaperID)
	assert.Equal(t, "summary text", hub.frames[0].Data)
}

func TestGenerateBroadcastsError(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()

	cfg := testConfig(config.Provider{ID: "n8n", Type: "webhook", Endpoint: failing.URL, Enabled: true})
	svc := NewService(nil, cfg, history.NewService(newMemBlobs(), 0, 0), nil, nil, nil)
	hub := &recordingHub{}
	svc.AttachHub(hub)

	_, err := svc.Generate(context.Background(), GenerateRequest{Title: "t", Text: "a"}, nil)
	require.Error(t, err)
	require.Equal(t, []string{gateway.EventError}, hub.events)
}

func TestNormalizeVariantDefaults(t *testing.T) {
	v, err := normalizeVariant("")
	require.NoError(t, err)
	assert.Equal(t, models.VariantAbstract, v)

	v, err = normalizeVariant(" Full ")
	require.NoError(t, err)
	assert.Equal(t, models.VariantFull, v)
}
