package notion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paperlens/core/internal/modules/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBlocksMapping(t *testing.T) {
	blocks := markdown.Translate("## Section\n\ntext with **bold**\n\n- item\n\n> note\n\n---\n\n```go\ncode\n```")
	converted := ToBlocks(blocks)

	require.Len(t, converted, 6)
	assert.Equal(t, "heading_2", converted[0]["type"])
	assert.Equal(t, "paragraph", converted[1]["type"])
	assert.Equal(t, "bulleted_list_item", converted[2]["type"])
	assert.Equal(t, "quote", converted[3]["type"])
	assert.Equal(t, "divider", converted[4]["type"])
	assert.Equal(t, "code", converted[5]["type"])

	code := converted[5]["code"].(map[string]interface{})
	assert.Equal(t, "go", code["language"])
}

func TestToBlocksTable(t *testing.T) {
	blocks := markdown.Translate("| a | b |\n| - | - |\n| 1 | 2 |")
	converted := ToBlocks(blocks)

	require.Len(t, converted, 1)
	table := converted[0]["table"].(map[string]interface{})
	assert.Equal(t, 2, table["table_width"])

	rows := table["children"].([]map[string]interface{})
	require.Len(t, rows, 2)
	assert.Equal(t, "table_row", rows[0]["type"])
}

func TestToBlocksRichTextAnnotations(t *testing.T) {
	blocks := markdown.Translate("**bold** and [link](https://x.y)")
	converted := ToBlocks(blocks)
	require.Len(t, converted, 1)

	rich := converted[0]["paragraph"].(map[string]interface{})["rich_text"].([]map[string]interface{})
	require.Len(t, rich, 3)

	annotations := rich[0]["annotations"].(map[string]interface{})
	assert.Equal(t, true, annotations["bold"])

	linkText := rich[2]["text"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"url": "https://x.y"}, linkText["link"])
}

func TestPagePropertiesShape(t *testing.T) {
	created := time.Date(2026, 8, 28, 15, 4, 5, 0, time.UTC)
	props := PageProperties(PageMeta{
		Title:      strings.Repeat("T", 2500),
		URL:        "https://arxiv.org/abs/1",
		ProviderID: "claude",
		ModelID:    "claude-sonnet-4-20250514",
		Keywords:   []string{"graphs", "attention, heads"},
		CreatedAt:  created,
		Completed:  false,
	})

	title := props["Title"].(map[string]interface{})["title"].([]map[string]interface{})
	content := title[0]["text"].(map[string]interface{})["content"].(string)
	assert.Len(t, []rune(content), 2000)

	date := props["Date"].(map[string]interface{})["date"].(map[string]interface{})
	assert.Equal(t, "2026-08-28", date["start"], "dates carry day granularity only")

	sel := props["Provider"].(map[string]interface{})["select"].(map[string]interface{})
	assert.Equal(t, "CLAUDE", sel["name"])

	multi := props["Keywords"].(map[string]interface{})["multi_select"].([]map[string]interface{})
	require.Len(t, multi, 2)
	assert.Equal(t, "attention  heads", multi[1]["name"], "commas are stripped from select values")

	checkbox := props["Completed"].(map[string]interface{})["checkbox"].(bool)
	assert.False(t, checkbox)
}

func TestProviderCategoryFallback(t *testing.T) {
	assert.Equal(t, "WEBHOOK", providerCategory("webhook"))
	assert.Equal(t, "OPENAI", providerCategory(" OpenAI "))
	assert.Equal(t, "GENERIC", providerCategory("something-else"))
}

func TestHTTPRelayHeadersAndRouting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, NotionVersion, r.Header.Get("Notion-Version"))
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/blocks/block-1/children", r.URL.Path)
		w.Write([]byte(`{"id":"block-1"}`))
	}))
	defer srv.Close()

	relay := NewHTTPRelay(srv.URL)
	reply, err := relay.Call(context.Background(), Message{
		Action:     ActionAppendBlocks,
		Credential: "tok",
		TargetID:   "block-1",
		Body:       map[string]interface{}{"children": []interface{}{}},
	})
	require.NoError(t, err)
	assert.True(t, reply.Success)
}

func TestHTTPRelayNotFoundReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"object_not_found","message":"Could not find page"}`))
	}))
	defer srv.Close()

	relay := NewHTTPRelay(srv.URL)
	reply, err := relay.Call(context.Background(), Message{Action: ActionGetPage, Credential: "tok", TargetID: "x"})
	require.NoError(t, err)
	assert.False(t, reply.Success)
	assert.True(t, reply.NotFound())
	assert.Equal(t, "Could not find page", reply.Error)
}
