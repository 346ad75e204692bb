package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenericRawStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		flusher := w.(http.Flusher)
		for _, chunk := range []string{"first ", "second ", "third"} {
			w.Write([]byte(chunk))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	g := NewGeneric("Generic", srv.URL, "")

	var updates []string
	result, err := g.Summarize(context.Background(), Request{Template: "x"}, func(cumulative string) {
		updates = append(updates, cumulative)
	})
	require.NoError(t, err)

	assert.Equal(t, "first second third", result.Text)
	assert.Nil(t, result.Usage)
	require.NotEmpty(t, updates)
	assert.Equal(t, "first second third", updates[len(updates)-1])
	for i := 1; i < len(updates); i++ {
		assert.True(t, len(updates[i]) >= len(updates[i-1]))
	}
}

func TestGenericJSONFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":"from json"}`))
	}))
	defer srv.Close()

	g := NewGeneric("Generic", srv.URL, "key")
	result, err := g.Summarize(context.Background(), Request{Template: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "from json", result.Text)
}

func TestGenericJSONFallbackStringifiesUnknownShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"done","id":7}`))
	}))
	defer srv.Close()

	g := NewGeneric("Generic", srv.URL, "")
	result, err := g.Summarize(context.Background(), Request{Template: "x"}, nil)
	require.NoError(t, err)
	assert.Contains(t, result.Text, `"status": "done"`)
}

func TestGenericNotConfigured(t *testing.T) {
	g := NewGeneric("Generic", "", "")
	_, err := g.Summarize(context.Background(), Request{Template: "x"}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
