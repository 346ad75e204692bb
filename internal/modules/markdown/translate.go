package markdown

import (
	"regexp"
	"strings"
)

const (
	// DefaultMaxBlocks matches the per-request block ceiling of the document API.
	DefaultMaxBlocks = 100
	// DefaultMaxSpanLen is the per-span text ceiling of the document API.
	DefaultMaxSpanLen = 2000
	// DefaultMaxHeadingLevel is the deepest heading level the target offers.
	DefaultMaxHeadingLevel = 3
)

// Options tune the lossy edges of translation.
type Options struct {
	MaxBlocks       int
	MaxSpanLen      int
	MaxHeadingLevel int
}

// Translator converts flat markdown into an ordered block sequence.
// Translation is deterministic and never fails; inputs beyond the block
// ceiling are truncated, not rejected.
type Translator struct {
	opts Options
}

func NewTranslator(opts Options) *Translator {
	if opts.MaxBlocks <= 0 {
		opts.MaxBlocks = DefaultMaxBlocks
	}
	if opts.MaxSpanLen <= 0 {
		opts.MaxSpanLen = DefaultMaxSpanLen
	}
	if opts.MaxHeadingLevel <= 0 {
		opts.MaxHeadingLevel = DefaultMaxHeadingLevel
	}
	return &Translator{opts: opts}
}

// Translate converts markdown with default options.
func Translate(markdown string) []Block {
	return NewTranslator(Options{}).Translate(markdown)
}

var (
	dividerPattern   = regexp.MustCompile(`^(?:-(?:\s*-){2,}|\*(?:\s*\*){2,}|_(?:\s*_){2,})$`)
	headingPattern   = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	numberedPattern  = regexp.MustCompile(`^\d+\.\s+(.*)$`)
	bulletPattern    = regexp.MustCompile(`^[-*]\s+(.*)$`)
	alignRowPattern  = regexp.MustCompile(`^\|[\s\-:|]+\|?$`)
)

// Translate runs a line-oriented scan with lookahead grouping for tables
// and fenced code. Blank lines separate blocks and are never emitted.
func (t *Translator) Translate(markdown string) []Block {
	lines := strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n")
	blocks := make([]Block, 0, len(lines))

	i := 0
	for i < len(lines) && len(blocks) < t.opts.MaxBlocks {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			i++
			continue
		}

		if strings.HasPrefix(trimmed, "```") {
			lang := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			var body []string
			i++
			for i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
				body = append(body, lines[i])
				i++
			}
			if i < len(lines) {
				i++ // closing fence
			}
			blocks = append(blocks, Block{
				Type:     BlockCode,
				Language: normalizeCodeLanguage(lang),
				Text:     t.truncate(strings.Join(body, "\n")),
			})
			continue
		}

		if dividerPattern.MatchString(trimmed) {
			blocks = append(blocks, Block{Type: BlockDivider})
			i++
			continue
		}

		if isTableRow(trimmed) {
			var group []string
			for i < len(lines) {
				row := strings.TrimSpace(lines[i])
				if !isTableRow(row) {
					break
				}
				group = append(group, row)
				i++
			}
			if table, ok := t.buildTable(group); ok {
				blocks = append(blocks, table)
			}
			continue
		}

		if m := headingPattern.FindStringSubmatch(trimmed); m != nil {
			level := len(m[1])
			if level > t.opts.MaxHeadingLevel {
				level = t.opts.MaxHeadingLevel
			}
			blocks = append(blocks, Block{Type: BlockHeading, Level: level, Spans: t.parseInline(m[2])})
			i++
			continue
		}

		// Single-line quotes only; consecutive quote lines stay separate blocks.
		if strings.HasPrefix(trimmed, "> ") || trimmed == ">" {
			blocks = append(blocks, Block{Type: BlockQuote, Spans: t.parseInline(strings.TrimPrefix(strings.TrimPrefix(trimmed, ">"), " "))})
			i++
			continue
		}

		if m := numberedPattern.FindStringSubmatch(trimmed); m != nil {
			blocks = append(blocks, Block{Type: BlockNumbered, Spans: t.parseInline(m[1])})
			i++
			continue
		}

		if m := bulletPattern.FindStringSubmatch(trimmed); m != nil {
			blocks = append(blocks, Block{Type: BlockBullet, Spans: t.parseInline(m[1])})
			i++
			continue
		}

		blocks = append(blocks, Block{Type: BlockParagraph, Spans: t.parseInline(trimmed)})
		i++
	}

	return blocks
}

func isTableRow(line string) bool {
	return len(line) > 1 && strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|")
}

func isAlignmentRow(line string) bool {
	return alignRowPattern.MatchString(line) && strings.Contains(line, "-")
}

// buildTable groups consecutive pipe rows into one table block. The
// alignment separator row is consumed and discarded. Column count is the
// maximum cell count over the data rows; shorter rows are padded empty.
func (t *Translator) buildTable(group []string) (Block, bool) {
	var rows [][][]Span
	columns := 0

	for _, row := range group {
		if isAlignmentRow(row) {
			continue
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(row, "|"), "|")
		var cells [][]Span
		for _, cell := range strings.Split(inner, "|") {
			cells = append(cells, t.parseInline(strings.TrimSpace(cell)))
		}
		if len(cells) > columns {
			columns = len(cells)
		}
		rows = append(rows, cells)
	}

	if len(rows) == 0 || columns == 0 {
		return Block{}, false
	}

	for ri := range rows {
		for len(rows[ri]) < columns {
			rows[ri] = append(rows[ri], t.parseInline(""))
		}
	}

	return Block{Type: BlockTable, Columns: columns, Rows: rows}, true
}

func normalizeCodeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return "plain text"
	}
	return lang
}

func (t *Translator) truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= t.opts.MaxSpanLen {
		return text
	}
	return string(runes[:t.opts.MaxSpanLen])
}
