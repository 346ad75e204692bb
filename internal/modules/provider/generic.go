package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// Generic is the raw passthrough variant: whatever the endpoint sends
// back is the summary. A streaming content type is forwarded chunk by
// chunk with no event framing; anything else is parsed as one JSON
// object with a best-effort result field lookup.
type Generic struct {
	name     string
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewGeneric(name, endpoint, apiKey string) *Generic {
	if name == "" {
		name = "Generic"
	}
	return &Generic{
		name:     name,
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

func (g *Generic) Kind() Kind   { return KindGeneric }
func (g *Generic) Name() string { return g.name }

func (g *Generic) Summarize(ctx context.Context, req Request, onUpdate UpdateFunc) (*Result, error) {
	if strings.TrimSpace(g.endpoint) == "" {
		return nil, fmt.Errorf("%s: %w", g.name, ErrNotConfigured)
	}

	body, _ := json.Marshal(map[string]string{
		"prompt": BuildPrompt(req),
		"title":  req.Title,
		"url":    req.URL,
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", g.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, backendError(g.name, resp.StatusCode, respBody)
	}

	if isStreamingContentType(resp.Header.Get("Content-Type")) {
		return g.streamRaw(resp.Body, onUpdate)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%s response read failed: %w", g.name, err)
	}

	text := extractGenericText(respBody)
	if onUpdate != nil {
		onUpdate(text)
	}
	return &Result{Text: text}, nil
}

func (g *Generic) streamRaw(body io.Reader, onUpdate UpdateFunc) (*Result, error) {
	var full strings.Builder
	buf := make([]byte, 4096)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			full.Write(buf[:n])
			if onUpdate != nil {
				onUpdate(full.String())
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("%s stream failed: %w", g.name, readErr)
		}
	}

	return &Result{Text: full.String()}, nil
}

func isStreamingContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case "text/event-stream", "application/octet-stream", "text/plain":
		return true
	}
	return false
}

var genericResultFields = []string{"result", "text", "content", "message", "output"}

func extractGenericText(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	for _, field := range genericResultFields {
		if value, ok := payload[field].(string); ok && value != "" {
			return value
		}
	}
	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return strings.TrimSpace(string(body))
	}
	return string(pretty)
}
