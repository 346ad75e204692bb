package markdown

import "regexp"

// Inline syntax is matched leftmost-first with one alternation so the
// priority order is fixed: bold, code, italic, link. Nested styling inside
// a match is kept as literal text.
var inlinePattern = regexp.MustCompile(
	`\*\*(.+?)\*\*` + // 1: bold **
		`|__(.+?)__` + // 2: bold __
		"|`([^`]+)`" + // 3: inline code
		`|\*([^*]+)\*` + // 4: italic *
		`|_([^_]+)_` + // 5: italic _
		`|\[([^\]]+)\]\(([^)]+)\)`, // 6,7: link text + url
)

// parseInline splits one line of text into styled spans. Text with no
// inline markers yields a single plain span carrying it verbatim; empty
// input yields a single empty span so table cells keep their shape.
func (t *Translator) parseInline(text string) []Span {
	if text == "" {
		return []Span{{Text: ""}}
	}

	var spans []Span
	last := 0
	for _, m := range inlinePattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			spans = append(spans, Span{Text: t.truncate(text[last:m[0]])})
		}
		spans = append(spans, t.styledSpan(text, m))
		last = m[1]
	}
	if last < len(text) {
		spans = append(spans, Span{Text: t.truncate(text[last:])})
	}

	if len(spans) == 0 {
		return []Span{{Text: t.truncate(text)}}
	}
	return spans
}

func (t *Translator) styledSpan(text string, m []int) Span {
	group := func(n int) (string, bool) {
		if m[2*n] < 0 {
			return "", false
		}
		return text[m[2*n]:m[2*n+1]], true
	}

	if s, ok := group(1); ok {
		return Span{Text: t.truncate(s), Bold: true}
	}
	if s, ok := group(2); ok {
		return Span{Text: t.truncate(s), Bold: true}
	}
	if s, ok := group(3); ok {
		return Span{Text: t.truncate(s), Code: true}
	}
	if s, ok := group(4); ok {
		return Span{Text: t.truncate(s), Italic: true}
	}
	if s, ok := group(5); ok {
		return Span{Text: t.truncate(s), Italic: true}
	}
	label, _ := group(6)
	url, _ := group(7)
	return Span{Text: t.truncate(label), LinkURL: url}
}
