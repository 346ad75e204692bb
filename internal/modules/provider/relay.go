package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// FrameType tags one message on a relay port.
type FrameType string

const (
	FrameDelta       FrameType = "delta"
	FrameUsageInput  FrameType = "usage_input"
	FrameUsageOutput FrameType = "usage_output"
	FrameDone        FrameType = "done"
	FrameError       FrameType = "error"
)

// Frame is one typed message relayed from the upstream event stream.
type Frame struct {
	Type         FrameType `json:"type"`
	Text         string    `json:"text,omitempty"`
	InputTokens  int       `json:"input_tokens,omitempty"`
	OutputTokens int       `json:"output_tokens,omitempty"`
	Err          string    `json:"error,omitempty"`
}

// RelayRequest is the raw request handed to the relay: the relay owns
// the HTTP call so the caller never touches the credential-bearing
// headers directly.
type RelayRequest struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    json.RawMessage   `json:"body"`
}

// Port is one live relayed stream. Frames is closed after the terminal
// done or error frame. Close aborts the upstream request and unblocks
// the producer.
type Port interface {
	Frames() <-chan Frame
	Close() error
}

// Relay opens a duplex port that performs an authenticated upstream
// request and translates its event stream into typed frames.
type Relay interface {
	Open(ctx context.Context, req RelayRequest) (Port, error)
}

// httpRelay is the in-process relay. It performs a single-attempt POST
// and decodes the Anthropic-style event stream into frames.
type httpRelay struct {
	client *http.Client
}

// NewHTTPRelay builds the default relay implementation.
func NewHTTPRelay() Relay {
	return &httpRelay{client: &http.Client{Timeout: 5 * time.Minute}}
}

type httpPort struct {
	frames chan Frame
	ctx    context.Context
	cancel context.CancelFunc
}

func (p *httpPort) Frames() <-chan Frame { return p.frames }

func (p *httpPort) Close() error {
	p.cancel()
	return nil
}

// send delivers a frame unless the port was closed; reports whether the
// producer should keep going.
func (p *httpPort) send(f Frame) bool {
	select {
	case p.frames <- f:
		return true
	case <-p.ctx.Done():
		return false
	}
}

func (r *httpRelay) Open(ctx context.Context, relayReq RelayRequest) (Port, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, relayReq.URL, bytes.NewReader(relayReq.Body))
	if err != nil {
		cancel()
		return nil, err
	}
	for k, v := range relayReq.Headers {
		req.Header.Set(k, v)
	}

	port := &httpPort{frames: make(chan Frame, 16), ctx: ctx, cancel: cancel}
	go r.pump(req, port)
	return port, nil
}

func (r *httpRelay) pump(req *http.Request, port *httpPort) {
	defer close(port.frames)

	resp, err := r.client.Do(req)
	if err != nil {
		port.send(Frame{Type: FrameError, Err: err.Error()})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		port.send(Frame{Type: FrameError, Err: backendError("Claude", resp.StatusCode, body).Error()})
		return
	}

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
			return port.send(Frame{Type: FrameDelta, Text: event.Delta.Text})
		case event.Type == "message_delta" && event.Usage != nil:
			return port.send(Frame{Type: FrameUsageOutput, OutputTokens: event.Usage.OutputTokens})
		case event.Type == "message_start" && event.Message != nil:
			return port.send(Frame{Type: FrameUsageInput, InputTokens: event.Message.Usage.InputTokens})
		}
		return true
	})
	if err != nil {
		port.send(Frame{Type: FrameError, Err: err.Error()})
		return
	}

	port.send(Frame{Type: FrameDone})
}
