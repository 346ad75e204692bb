package notion

import (
	"strings"
	"time"
)

const maxTitleLen = 2000

// Provider categories shown in the database select property. Unknown
// provider ids fall into the generic bucket.
var providerCategories = map[string]string{
	"webhook": "WEBHOOK",
	"claude":  "CLAUDE",
	"openai":  "OPENAI",
	"generic": "GENERIC",
}

func providerCategory(providerID string) string {
	if category, ok := providerCategories[strings.ToLower(strings.TrimSpace(providerID))]; ok {
		return category
	}
	return "GENERIC"
}

// PageMeta is the material mapped onto the fixed database property schema.
type PageMeta struct {
	Title      string
	URL        string
	ProviderID string
	ModelID    string
	Keywords   []string
	CreatedAt  time.Time
	Completed  bool
}

// DatabaseSchema is the property schema provisioned once per install.
func DatabaseSchema() map[string]interface{} {
	return map[string]interface{}{
		"Title":    map[string]interface{}{"title": map[string]interface{}{}},
		"URL":      map[string]interface{}{"url": map[string]interface{}{}},
		"Date":     map[string]interface{}{"date": map[string]interface{}{}},
		"Provider": map[string]interface{}{
			"select": map[string]interface{}{
				"options": []map[string]interface{}{
					{"name": "WEBHOOK", "color": "purple"},
					{"name": "CLAUDE", "color": "orange"},
					{"name": "OPENAI", "color": "green"},
					{"name": "GENERIC", "color": "gray"},
				},
			},
		},
		"Model":     map[string]interface{}{"rich_text": map[string]interface{}{}},
		"Keywords":  map[string]interface{}{"multi_select": map[string]interface{}{}},
		"Completed": map[string]interface{}{"checkbox": map[string]interface{}{}},
	}
}

// PageProperties maps one summary onto the database schema. Dates carry
// day granularity only.
func PageProperties(meta PageMeta) map[string]interface{} {
	props := map[string]interface{}{
		"Title": map[string]interface{}{
			"title": []map[string]interface{}{textSpan(truncateRunes(meta.Title, maxTitleLen), nil)},
		},
		"Provider": map[string]interface{}{
			"select": map[string]interface{}{"name": providerCategory(meta.ProviderID)},
		},
		"Completed": map[string]interface{}{"checkbox": meta.Completed},
	}

	if meta.URL != "" {
		props["URL"] = map[string]interface{}{"url": meta.URL}
	}

	createdAt := meta.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	props["Date"] = map[string]interface{}{
		"date": map[string]interface{}{"start": createdAt.Format("2006-01-02")},
	}

	if meta.ModelID != "" {
		props["Model"] = map[string]interface{}{
			"rich_text": []map[string]interface{}{textSpan(meta.ModelID, nil)},
		}
	}

	if len(meta.Keywords) > 0 {
		options := make([]map[string]interface{}, 0, len(meta.Keywords))
		for _, kw := range meta.Keywords {
			options = append(options, map[string]interface{}{"name": sanitizeSelectName(kw)})
		}
		props["Keywords"] = map[string]interface{}{"multi_select": options}
	}

	return props
}

// CompletedProperty is the minimal patch flipping the completion flag.
func CompletedProperty(completed bool) map[string]interface{} {
	return map[string]interface{}{
		"Completed": map[string]interface{}{"checkbox": completed},
	}
}

// sanitizeSelectName strips commas, which Notion rejects in select values.
func sanitizeSelectName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, ",", " "))
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
