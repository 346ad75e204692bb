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

const (
	openaiDefaultEndpoint = "https://api.openai.com"
	openaiDefaultModel    = "gpt-4o-mini"
	openaiMaxTokens       = 4096
)

// OpenAI talks to the chat completions API with usage reporting enabled
// on the stream.
type OpenAI struct {
	name     string
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func NewOpenAI(name, apiKey, model, endpoint string) *OpenAI {
	if name == "" {
		name = "OpenAI"
	}
	if model == "" {
		model = openaiDefaultModel
	}
	if endpoint == "" {
		endpoint = openaiDefaultEndpoint
	}
	return &OpenAI{
		name:     name,
		apiKey:   apiKey,
		model:    model,
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

func (o *OpenAI) Kind() Kind   { return KindOpenAI }
func (o *OpenAI) Name() string { return o.name }

func (o *OpenAI) Summarize(ctx context.Context, req Request, onUpdate UpdateFunc) (*Result, error) {
	if strings.TrimSpace(o.apiKey) == "" {
		return nil, fmt.Errorf("%s: %w", o.name, ErrNotConfigured)
	}

	prompt := BuildPrompt(req)
	if onUpdate == nil {
		return o.generate(ctx, prompt)
	}
	return o.stream(ctx, prompt, onUpdate)
}

func (o *OpenAI) stream(ctx context.Context, prompt string, onUpdate UpdateFunc) (*Result, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"model":      o.model,
		"messages":   []map[string]string{{"role": "user", "content": prompt}},
		"max_tokens": openaiMaxTokens,
		"stream":     true,
		"stream_options": map[string]bool{
			"include_usage": true,
		},
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", o.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, backendError(o.name, resp.StatusCode, respBody)
	}

	var full strings.Builder
	usage := &Usage{}

	err = decodeEventStream(resp.Body, func(payload string) bool {
		var event struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
			Usage *struct {
				PromptTokens     int `json:"prompt_tokens"`
				CompletionTokens int `json:"completion_tokens"`
			} `json:"usage"`
		}
		if jsonErr := json.Unmarshal([]byte(payload), &event); jsonErr != nil {
			return true // malformed frame, keep going
		}
		if len(event.Choices) > 0 && event.Choices[0].Delta.Content != "" {
			full.WriteString(event.Choices[0].Delta.Content)
			onUpdate(full.String())
		}
		if event.Usage != nil {
			usage.InputTokens = event.Usage.PromptTokens
			usage.OutputTokens = event.Usage.CompletionTokens
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("%s stream failed: %w", o.name, err)
	}

	return &Result{Text: full.String(), Usage: usage, ModelID: o.model}, nil
}
