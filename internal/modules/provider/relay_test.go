package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayDeliversTypedFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(claudeStreamBody()))
	}))
	defer srv.Close()

	relay := NewHTTPRelay()
	port, err := relay.Open(context.Background(), RelayRequest{URL: srv.URL, Body: []byte(`{}`)})
	require.NoError(t, err)
	defer port.Close()

	var frames []Frame
	for frame := range port.Frames() {
		frames = append(frames, frame)
	}

	require.Len(t, frames, 5)
	assert.Equal(t, Frame{Type: FrameUsageInput, InputTokens: 12}, frames[0])
	assert.Equal(t, Frame{Type: FrameDelta, Text: "Hel"}, frames[1])
	assert.Equal(t, Frame{Type: FrameDelta, Text: "lo"}, frames[2])
	assert.Equal(t, Frame{Type: FrameUsageOutput, OutputTokens: 5}, frames[3])
	assert.Equal(t, Frame{Type: FrameDone}, frames[4])
}

func TestRelayErrorFrameOnRejectedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad token"}}`))
	}))
	defer srv.Close()

	relay := NewHTTPRelay()
	port, err := relay.Open(context.Background(), RelayRequest{URL: srv.URL, Body: []byte(`{}`)})
	require.NoError(t, err)
	defer port.Close()

	frame, ok := <-port.Frames()
	require.True(t, ok)
	assert.Equal(t, FrameError, frame.Type)
	assert.Equal(t, "bad token", frame.Err)

	_, ok = <-port.Frames()
	assert.False(t, ok, "channel should be closed after the terminal frame")
}

func TestRelayCloseAbortsStream(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(`data: {"type":"content_block_delta","delta":{"text":"x"}}` + "\n\n"))
		w.(http.Flusher).Flush()
		<-release // hold the stream open until the test finishes
	}))
	defer srv.Close()
	defer close(release)

	relay := NewHTTPRelay()
	port, err := relay.Open(context.Background(), RelayRequest{URL: srv.URL, Body: []byte(`{}`)})
	require.NoError(t, err)

	frame := <-port.Frames()
	assert.Equal(t, FrameDelta, frame.Type)

	require.NoError(t, port.Close())

	// After Close the producer must wind down and close the channel.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-port.Frames():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("port did not shut down after Close")
		}
	}
}
