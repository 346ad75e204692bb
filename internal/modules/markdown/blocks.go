package markdown

// BlockType enumerates the flat block kinds the document target supports.
type BlockType string

const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockBullet    BlockType = "bulleted_list_item"
	BlockNumbered  BlockType = "numbered_list_item"
	BlockQuote     BlockType = "quote"
	BlockDivider   BlockType = "divider"
	BlockCode      BlockType = "code"
	BlockTable     BlockType = "table"
)

// Span is one run of inline rich text.
type Span struct {
	Text    string `json:"text"`
	Bold    bool   `json:"bold,omitempty"`
	Italic  bool   `json:"italic,omitempty"`
	Code    bool   `json:"code,omitempty"`
	LinkURL string `json:"link_url,omitempty"`
}

// Block is a tagged union over the supported flat block kinds.
// Only the fields relevant to Type are populated.
type Block struct {
	Type     BlockType `json:"type"`
	Level    int       `json:"level,omitempty"`    // heading
	Spans    []Span    `json:"spans,omitempty"`    // heading, paragraph, list items, quote
	Language string    `json:"language,omitempty"` // code
	Text     string    `json:"text,omitempty"`     // code
	Columns  int       `json:"columns,omitempty"`  // table
	Rows     [][][]Span `json:"rows,omitempty"`    // table: rows -> cells -> spans
}

// PlainText flattens a span sequence back into unstyled text.
func PlainText(spans []Span) string {
	out := ""
	for _, s := range spans {
		out += s.Text
	}
	return out
}
