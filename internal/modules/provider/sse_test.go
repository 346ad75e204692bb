package provider

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader returns one configured chunk per Read call, simulating a
// network stream with arbitrary frame boundaries.
type chunkReader struct {
	chunks []string
	pos    int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if c.pos >= len(c.chunks) {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[c.pos])
	c.pos++
	return n, nil
}

func collectPayloads(t *testing.T, chunks ...string) []string {
	t.Helper()
	var got []string
	err := decodeEventStream(&chunkReader{chunks: chunks}, func(payload string) bool {
		got = append(got, payload)
		return true
	})
	require.NoError(t, err)
	return got
}

func TestDecodeEventStreamWholeFrames(t *testing.T) {
	got := collectPayloads(t, "data: {\"a\":1}\n\ndata: {\"b\":2}\n\n")
	assert.Equal(t, []string{`{"a":1}`, `{"b":2}`}, got)
}

func TestDecodeEventStreamFrameSplitAcrossChunks(t *testing.T) {
	got := collectPayloads(t,
		"data: {\"text\":\"hel",
		"lo\"}\n\ndata: {\"text\":\"world\"}\n",
	)
	assert.Equal(t, []string{`{"text":"hello"}`, `{"text":"world"}`}, got)
}

func TestDecodeEventStreamDoneSentinel(t *testing.T) {
	got := collectPayloads(t, "data: {\"a\":1}\n\ndata: [DONE]\n\ndata: {\"b\":2}\n\n")
	assert.Equal(t, []string{`{"a":1}`}, got)
}

func TestDecodeEventStreamIgnoresNonDataLines(t *testing.T) {
	got := collectPayloads(t, ": keep-alive\n\nevent: ping\n\ndata: {\"a\":1}\n\n")
	assert.Equal(t, []string{`{"a":1}`}, got)
}

func TestDecodeEventStreamEarlyStop(t *testing.T) {
	var got []string
	err := decodeEventStream(&chunkReader{chunks: []string{"data: 1\n\ndata: 2\n\ndata: 3\n\n"}}, func(payload string) bool {
		got = append(got, payload)
		return len(got) < 2
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, got)
}
