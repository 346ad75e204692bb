// Package notion reconciles local summaries against Notion pages and
// databases through a message-passing relay.
package notion

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

// NotionVersion is the pinned protocol version sent with every request.
const NotionVersion = "2022-06-28"

const defaultEndpoint = "https://api.notion.com"

// Action identifies one operation at the relay boundary.
type Action string

const (
	ActionCreateDatabase Action = "createDatabase"
	ActionCreatePage     Action = "createPage"
	ActionUpdatePage     Action = "updatePage"
	ActionGetPage        Action = "getPage"
	ActionAppendBlocks   Action = "appendBlocks"
	ActionGetUser        Action = "getUser"
)

// Message is one request to the relay. The relay owns the credential;
// the reconciler only forwards it.
type Message struct {
	Action     Action      `json:"action"`
	Credential string      `json:"credential"`
	TargetID   string      `json:"targetId,omitempty"`
	Body       interface{} `json:"body,omitempty"`
}

// Reply is the relay's answer: either data or an error, never both.
type Reply struct {
	Success bool            `json:"success"`
	Status  int             `json:"status,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// NotFound reports whether the reply says the referenced document no
// longer exists.
func (r *Reply) NotFound() bool {
	return !r.Success && r.Status == http.StatusNotFound
}

// Relay performs one authenticated request per message. Single attempt,
// no automatic retry; failures come back in the reply.
type Relay interface {
	Call(ctx context.Context, msg Message) (*Reply, error)
}

// HTTPRelay is the in-process relay against the real Notion API.
type HTTPRelay struct {
	endpoint string
	client   *http.Client
}

func NewHTTPRelay(endpoint string) *HTTPRelay {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &HTTPRelay{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (h *HTTPRelay) route(msg Message) (method, url string, err error) {
	switch msg.Action {
	case ActionCreateDatabase:
		return http.MethodPost, h.endpoint + "/v1/databases", nil
	case ActionCreatePage:
		return http.MethodPost, h.endpoint + "/v1/pages", nil
	case ActionUpdatePage:
		return http.MethodPatch, h.endpoint + "/v1/pages/" + msg.TargetID, nil
	case ActionGetPage:
		return http.MethodGet, h.endpoint + "/v1/pages/" + msg.TargetID, nil
	case ActionAppendBlocks:
		return http.MethodPatch, h.endpoint + "/v1/blocks/" + msg.TargetID + "/children", nil
	case ActionGetUser:
		return http.MethodGet, h.endpoint + "/v1/users/me", nil
	default:
		return "", "", fmt.Errorf("unknown relay action %q", msg.Action)
	}
}

// Call performs the request. Transport failures surface as errors;
// upstream rejections come back as an unsuccessful reply.
func (h *HTTPRelay) Call(ctx context.Context, msg Message) (*Reply, error) {
	method, url, err := h.route(msg)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if msg.Body != nil {
		raw, marshalErr := json.Marshal(msg.Body)
		if marshalErr != nil {
			return nil, marshalErr
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+msg.Credential)
	req.Header.Set("Notion-Version", NotionVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notion request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("notion response read failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Reply{
			Success: false,
			Status:  resp.StatusCode,
			Error:   extractNotionError(respBody, resp.StatusCode),
		}, nil
	}
	return &Reply{Success: true, Status: resp.StatusCode, Data: respBody}, nil
}

func extractNotionError(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Message) != "" {
		return payload.Message
	}
	return fmt.Sprintf("Notion error: %d", status)
}
