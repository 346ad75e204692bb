package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicDefaultEndpoint = "https://api.anthropic.com"
	anthropicVersion         = "2023-06-01"
	anthropicDefaultModel    = "claude-sonnet-4-20250514"
	anthropicMaxTokens       = 4096

	// Tokens with this prefix require OAuth-style request shaping and
	// must go through the relay port.
	oauthTokenPrefix = "sk-ant-oat"
	oauthBetaHeader  = "oauth-2025-04-20"
	oauthUserAgent   = "paperlens-core/1.0"

	// Fixed system preamble required by the OAuth request shape.
	oauthSystemPreamble = "You are a research assistant that produces careful, well-structured paper summaries."
)

// Claude talks to the Anthropic Messages API directly, or through the
// relay port when the credential is an OAuth token.
type Claude struct {
	name     string
	apiKey   string
	model    string
	endpoint string
	relay    Relay
	client   *http.Client
}

func NewClaude(name, apiKey, model, endpoint string, relay Relay) *Claude {
	if name == "" {
		name = "Claude"
	}
	if model == "" {
		model = anthropicDefaultModel
	}
	if endpoint == "" {
		endpoint = anthropicDefaultEndpoint
	}
	if relay == nil {
		relay = NewHTTPRelay()
	}
	return &Claude{
		name:     name,
		apiKey:   apiKey,
		model:    model,
		endpoint: strings.TrimRight(endpoint, "/"),
		relay:    relay,
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *Claude) Kind() Kind   { return KindClaude }
func (c *Claude) Name() string { return c.name }

func (c *Claude) Summarize(ctx context.Context, req Request, onUpdate UpdateFunc) (*Result, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, fmt.Errorf("%s: %w", c.name, ErrNotConfigured)
	}

	prompt := BuildPrompt(req)

	if strings.HasPrefix(c.apiKey, oauthTokenPrefix) {
		return c.summarizeViaRelay(ctx, prompt, onUpdate)
	}
	if onUpdate == nil {
		return c.generate(ctx, prompt)
	}
	return c.stream(ctx, prompt, onUpdate)
}

type anthropicMessageBody struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Stream    bool               `json:"stream,omitempty"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *Claude) stream(ctx context.Context, prompt string, onUpdate UpdateFunc) (*Result, error) {
	body, _ := json.Marshal(anthropicMessageBody{
		Model:     c.model,
		MaxTokens: anthropicMaxTokens,
		Stream:    true,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, backendError(c.name, resp.StatusCode, respBody)
	}

	var full strings.Builder
	usage := &Usage{}

	err = decodeEventStream(resp.Body, func(payload string) bool {
		var event struct {
			Type  string `json:"type"`
			Delta *struct {
				Text string `json:"text"`
			} `json:"delta"`
			Usage *struct {
				OutputTokens int `json:"output_tokens"`
			} `json:"usage"`
			Message *struct {
				Usage struct {
					InputTokens int `json:"input_tokens"`
				} `json:"usage"`
			} `json:"message"`
		}
		if jsonErr := json.Unmarshal([]byte(payload), &event); jsonErr != nil {
			return true // malformed frame, keep going
		}
		switch {
		case event.Type == "content_block_delta" && event.Delta != nil && event.Delta.Text != "":
			full.WriteString(event.Delta.Text)
			onUpdate(full.String())
		case event.Type == "message_delta" && event.Usage != nil:
			usage.OutputTokens = event.Usage.OutputTokens
		case event.Type == "message_start" && event.Message != nil:
			usage.InputTokens = event.Message.Usage.InputTokens
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("%s stream failed: %w", c.name, err)
	}

	return &Result{Text: full.String(), Usage: usage, ModelID: c.model}, nil
}

// summarizeViaRelay routes the call through the relay port: the OAuth
// request shape needs a fixed system preamble, Bearer auth and a beta
// header, and the relay owns those credential-bearing headers.
func (c *Claude) summarizeViaRelay(ctx context.Context, prompt string, onUpdate UpdateFunc) (*Result, error) {
	body, _ := json.Marshal(anthropicMessageBody{
		Model:     c.model,
		MaxTokens: anthropicMaxTokens,
		Stream:    true,
		System:    oauthSystemPreamble,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	})

	port, err := c.relay.Open(ctx, RelayRequest{
		URL: c.endpoint + "/v1/messages",
		Headers: map[string]string{
			"Content-Type":      "application/json",
			"Authorization":     "Bearer " + c.apiKey,
			"anthropic-version": anthropicVersion,
			"anthropic-beta":    oauthBetaHeader,
			"User-Agent":        oauthUserAgent,
		},
		Body: body,
	})
	if err != nil {
		return nil, fmt.Errorf("%s relay open failed: %w", c.name, err)
	}
	defer port.Close()

	var full strings.Builder
	usage := &Usage{}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case frame, ok := <-port.Frames():
			if !ok {
				return nil, fmt.Errorf("%s relay closed before completion", c.name)
			}
			switch frame.Type {
			case FrameDelta:
				full.WriteString(frame.Text)
				if onUpdate != nil {
					onUpdate(full.String())
				}
			case FrameUsageInput:
				usage.InputTokens = frame.InputTokens
			case FrameUsageOutput:
				usage.OutputTokens = frame.OutputTokens
			case FrameError:
				return nil, errors.New(frame.Err)
			case FrameDone:
				return &Result{Text: full.String(), Usage: usage, ModelID: c.model}, nil
			}
		}
	}
}
