package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claudeStreamBody() string {
	return strings.Join([]string{
		`data: {"type":"message_start","message":{"usage":{"input_tokens":12}}}`,
		"",
		`data: {"type":"content_block_delta","delta":{"text":"Hel"}}`,
		"",
		"not json at all",
		"data: {broken frame",
		"",
		`data: {"type":"content_block_delta","delta":{"text":"lo"}}`,
		"",
		`data: {"type":"message_delta","usage":{"output_tokens":5}}`,
		"",
		"data: [DONE]",
		"",
	}, "\n") + "\n"
}

func TestClaudeStreamAggregation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(claudeStreamBody()))
	}))
	defer srv.Close()

	c := NewClaude("Claude", "secret-key", "claude-sonnet-4-20250514", srv.URL, nil)

	var updates []string
	result, err := c.Summarize(context.Background(), Request{Template: "{{title}}", Title: "t"}, func(cumulative string) {
		updates = append(updates, cumulative)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hel", "Hello"}, updates)
	assert.Equal(t, "Hello", result.Text)
	require.NotNil(t, result.Usage)
	assert.Equal(t, 12, result.Usage.InputTokens)
	assert.Equal(t, 5, result.Usage.OutputTokens)
}

func TestClaudeStreamMonotonicCumulative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, tok := range []string{"a", "b", "c", "d"} {
			w.Write([]byte(`data: {"type":"content_block_delta","delta":{"text":"` + tok + `"}}` + "\n\n"))
		}
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	c := NewClaude("Claude", "k", "", srv.URL, nil)

	var updates []string
	_, err := c.Summarize(context.Background(), Request{Template: "x"}, func(cumulative string) {
		updates = append(updates, cumulative)
	})
	require.NoError(t, err)
	require.NotEmpty(t, updates)

	for i := 1; i < len(updates); i++ {
		assert.True(t, strings.HasPrefix(updates[i], updates[i-1]),
			"update %d is not a prefix extension of update %d", i, i-1)
		assert.GreaterOrEqual(t, len(updates[i]), len(updates[i-1]))
	}
}

func TestClaudeNotConfigured(t *testing.T) {
	c := NewClaude("Claude", "", "", "", nil)
	_, err := c.Summarize(context.Background(), Request{Template: "x"}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClaudeBackendErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	c := NewClaude("Claude", "bad", "", srv.URL, nil)
	_, err := c.Summarize(context.Background(), Request{Template: "x"}, func(string) {})
	require.Error(t, err)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, http.StatusUnauthorized, backendErr.Status)
	assert.Equal(t, "invalid x-api-key", backendErr.Message)
}

func TestClaudeBackendErrorFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClaude("Claude", "k", "", srv.URL, nil)
	_, err := c.Summarize(context.Background(), Request{Template: "x"}, func(string) {})
	require.Error(t, err)
	assert.Equal(t, "Claude error: 502", err.Error())
}

func TestClaudeOAuthRoutesThroughRelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-ant-oat-token", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("x-api-key"))
		assert.Equal(t, oauthBetaHeader, r.Header.Get("anthropic-beta"))
		assert.Equal(t, oauthUserAgent, r.Header.Get("User-Agent"))
		assert.Contains(t, readBodyString(r), oauthSystemPreamble)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(claudeStreamBody()))
	}))
	defer srv.Close()

	c := NewClaude("Claude", "sk-ant-oat-token", "", srv.URL, NewHTTPRelay())

	var updates []string
	result, err := c.Summarize(context.Background(), Request{Template: "x"}, func(cumulative string) {
		updates = append(updates, cumulative)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hel", "Hello"}, updates)
	assert.Equal(t, "Hello", result.Text)
	assert.Equal(t, 12, result.Usage.InputTokens)
	assert.Equal(t, 5, result.Usage.OutputTokens)
}

func TestClaudeOAuthRelayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"token expired"}}`))
	}))
	defer srv.Close()

	c := NewClaude("Claude", "sk-ant-oat-token", "", srv.URL, NewHTTPRelay())
	_, err := c.Summarize(context.Background(), Request{Template: "x"}, nil)
	require.Error(t, err)
	assert.Equal(t, "token expired", err.Error())
}
