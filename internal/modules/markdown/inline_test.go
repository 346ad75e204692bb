package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spansOf(text string) []Span {
	return NewTranslator(Options{}).parseInline(text)
}

func TestParseInlineStyles(t *testing.T) {
	spans := spansOf("plain **bold** __also__ `code` *ital* _ital2_ [link](https://x.y)")

	require.Len(t, spans, 12)
	assert.Equal(t, Span{Text: "plain "}, spans[0])
	assert.Equal(t, Span{Text: "bold", Bold: true}, spans[1])
	assert.Equal(t, Span{Text: "also", Bold: true}, spans[3])
	assert.Equal(t, Span{Text: "code", Code: true}, spans[5])
	assert.Equal(t, Span{Text: "ital", Italic: true}, spans[7])
	assert.Equal(t, Span{Text: "ital2", Italic: true}, spans[9])
	assert.Equal(t, Span{Text: "link", LinkURL: "https://x.y"}, spans[11])
}

func TestParseInlineBoldBeforeItalic(t *testing.T) {
	// ** must not be consumed as two italic markers.
	spans := spansOf("**strong**")
	require.Len(t, spans, 1)
	assert.True(t, spans[0].Bold)
	assert.False(t, spans[0].Italic)
	assert.Equal(t, "strong", spans[0].Text)
}

func TestParseInlinePlainFallback(t *testing.T) {
	spans := spansOf("no markers here")
	require.Len(t, spans, 1)
	assert.Equal(t, Span{Text: "no markers here"}, spans[0])
}

func TestParseInlineUnbalancedMarkersKeptVerbatim(t *testing.T) {
	spans := spansOf("broken **bold and `code")
	assert.Equal(t, "broken **bold and `code", PlainText(spans))
}

func TestParseInlineAdjacentRuns(t *testing.T) {
	spans := spansOf("**a**`b`*c*")
	require.Len(t, spans, 3)
	assert.True(t, spans[0].Bold)
	assert.True(t, spans[1].Code)
	assert.True(t, spans[2].Italic)
}
