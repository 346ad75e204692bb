package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookResultField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := readBodyString(r)
		assert.Contains(t, body, "제목: Paper Title")
		assert.Contains(t, body, "초록: The abstract.")
		assert.Contains(t, body, "URL: https://arxiv.org/abs/2401.00001")
		w.Write([]byte(`{"result":"summary text"}`))
	}))
	defer srv.Close()

	wh := NewWebhook("n8n", srv.URL)

	var updates []string
	result, err := wh.Summarize(context.Background(), Request{
		Title: "Paper Title",
		Text:  "The abstract.",
		URL:   "https://arxiv.org/abs/2401.00001",
	}, func(cumulative string) {
		updates = append(updates, cumulative)
	})
	require.NoError(t, err)

	assert.Equal(t, "summary text", result.Text)
	assert.Nil(t, result.Usage)
	// Batch variant: exactly one callback, fired only after the body parsed.
	assert.Equal(t, []string{"summary text"}, updates)
}

func TestWebhookFallsBackToPrettyJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer":"42"}`))
	}))
	defer srv.Close()

	wh := NewWebhook("n8n", srv.URL)
	result, err := wh.Summarize(context.Background(), Request{}, nil)
	require.NoError(t, err)
	assert.Contains(t, result.Text, `"answer": "42"`)
}

func TestWebhookNotConfigured(t *testing.T) {
	wh := NewWebhook("n8n", "")
	_, err := wh.Summarize(context.Background(), Request{}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestWebhookBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"workflow failed"}`))
	}))
	defer srv.Close()

	wh := NewWebhook("n8n", srv.URL)
	_, err := wh.Summarize(context.Background(), Request{}, nil)
	require.Error(t, err)
	assert.Equal(t, "workflow failed", err.Error())
}
