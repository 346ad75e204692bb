package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Webhook posts the paper to an automation endpoint (n8n style) and
// takes the whole response body as the summary. Batch only: the
// callback fires once, after the full body parses. No usage metrics.
type Webhook struct {
	name     string
	endpoint string
	client   *http.Client
}

func NewWebhook(name, endpoint string) *Webhook {
	if name == "" {
		name = "Webhook"
	}
	return &Webhook{
		name:     name,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 3 * time.Minute},
	}
}

func (w *Webhook) Kind() Kind   { return KindWebhook }
func (w *Webhook) Name() string { return w.name }

func (w *Webhook) Summarize(ctx context.Context, req Request, onUpdate UpdateFunc) (*Result, error) {
	if strings.TrimSpace(w.endpoint) == "" {
		return nil, fmt.Errorf("%s: %w", w.name, ErrNotConfigured)
	}

	message := fmt.Sprintf("제목: %s\n\n초록: %s\n\nURL: %s", req.Title, req.Text, req.URL)
	body, _ := json.Marshal(map[string]string{"message": message})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", w.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%s response read failed: %w", w.name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, backendError(w.name, resp.StatusCode, respBody)
	}

	text := extractWebhookText(respBody)
	if onUpdate != nil {
		onUpdate(text)
	}
	return &Result{Text: text}, nil
}

// extractWebhookText prefers the conventional result field, otherwise
// pretty-prints the whole payload so the caller still sees something.
func extractWebhookText(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if result, ok := payload["result"].(string); ok && result != "" {
		return result
	}
	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return strings.TrimSpace(string(body))
	}
	return string(pretty)
}
