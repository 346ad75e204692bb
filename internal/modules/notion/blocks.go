package notion

import (
	"fmt"

	"github.com/paperlens/core/internal/modules/markdown"
)

// ToBlocks maps translated document blocks onto the Notion block JSON
// shapes accepted by page creation and block append calls.
func ToBlocks(blocks []markdown.Block) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(blocks))
	for _, b := range blocks {
		if converted := toBlock(b); converted != nil {
			out = append(out, converted)
		}
	}
	return out
}

func toBlock(b markdown.Block) map[string]interface{} {
	switch b.Type {
	case markdown.BlockHeading:
		key := fmt.Sprintf("heading_%d", clampHeading(b.Level))
		return wrap(key, map[string]interface{}{"rich_text": toRichText(b.Spans)})
	case markdown.BlockParagraph:
		return wrap("paragraph", map[string]interface{}{"rich_text": toRichText(b.Spans)})
	case markdown.BlockBullet:
		return wrap("bulleted_list_item", map[string]interface{}{"rich_text": toRichText(b.Spans)})
	case markdown.BlockNumbered:
		return wrap("numbered_list_item", map[string]interface{}{"rich_text": toRichText(b.Spans)})
	case markdown.BlockQuote:
		return wrap("quote", map[string]interface{}{"rich_text": toRichText(b.Spans)})
	case markdown.BlockDivider:
		return wrap("divider", map[string]interface{}{})
	case markdown.BlockCode:
		return wrap("code", map[string]interface{}{
			"rich_text": []map[string]interface{}{textSpan(b.Text, nil)},
			"language":  b.Language,
		})
	case markdown.BlockTable:
		return tableBlock(b)
	default:
		return nil
	}
}

func clampHeading(level int) int {
	if level < 1 {
		return 1
	}
	if level > 3 {
		return 3
	}
	return level
}

func wrap(key string, value map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"object": "block",
		"type":   key,
		key:      value,
	}
}

func tableBlock(b markdown.Block) map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(b.Rows))
	for _, row := range b.Rows {
		cells := make([][]map[string]interface{}, 0, len(row))
		for _, cell := range row {
			cells = append(cells, toRichText(cell))
		}
		rows = append(rows, map[string]interface{}{
			"object": "block",
			"type":   "table_row",
			"table_row": map[string]interface{}{
				"cells": cells,
			},
		})
	}
	return wrap("table", map[string]interface{}{
		"table_width":       b.Columns,
		"has_column_header": true,
		"children":          rows,
	})
}

func toRichText(spans []markdown.Span) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(spans))
	for _, span := range spans {
		annotations := map[string]interface{}{}
		if span.Bold {
			annotations["bold"] = true
		}
		if span.Italic {
			annotations["italic"] = true
		}
		if span.Code {
			annotations["code"] = true
		}
		item := textSpan(span.Text, nil)
		if span.LinkURL != "" {
			item = textSpan(span.Text, map[string]interface{}{"url": span.LinkURL})
		}
		if len(annotations) > 0 {
			item["annotations"] = annotations
		}
		out = append(out, item)
	}
	return out
}

func textSpan(content string, link map[string]interface{}) map[string]interface{} {
	text := map[string]interface{}{"content": content}
	if link != nil {
		text["link"] = link
	}
	return map[string]interface{}{
		"type": "text",
		"text": text,
	}
}
