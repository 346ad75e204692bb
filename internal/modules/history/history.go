// Package history keeps the bounded most-recent-first record of
// generated summaries, persisted as one opaque keyed blob.
package history

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/paperlens/core/internal/models"
	"github.com/paperlens/core/internal/modules/provider"
)

const (
	// DefaultMaxItems bounds the history by entry count.
	DefaultMaxItems = 50
	// DefaultMaxBytes bounds the history by serialized size.
	DefaultMaxBytes = 4 << 20
)

// Entry is one stored summary. Entries are immutable once created; a
// new summary for the same (paperId, variant) supersedes the old one.
type Entry struct {
	PaperID    string          `json:"paperId"`
	Variant    models.Variant  `json:"variant"`
	Title      string          `json:"title"`
	URL        string          `json:"url"`
	Markdown   string          `json:"markdown"`
	ProviderID string          `json:"providerId"`
	ModelID    string          `json:"modelId,omitempty"`
	Usage      *provider.Usage `json:"usage,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func (e Entry) key() string {
	return e.PaperID + "\x00" + string(e.Variant)
}

func entrySize(e Entry) int {
	raw, err := json.Marshal(e)
	if err != nil {
		return len(e.Markdown)
	}
	return len(raw)
}

// Insert prepends e, removing any prior entry for the same
// (paperId, variant) first, then applies the count and byte bounds.
// The returned slice is most-recent-first.
func Insert(items []Entry, e Entry, maxItems, maxBytes int) []Entry {
	out := make([]Entry, 0, len(items)+1)
	out = append(out, e)
	for _, item := range items {
		if item.key() == e.key() {
			continue
		}
		out = append(out, item)
	}
	return Evict(out, maxItems, maxBytes)
}

// Evict trims from the oldest end until both bounds hold.
func Evict(items []Entry, maxItems, maxBytes int) []Entry {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	if len(items) > maxItems {
		items = items[:maxItems]
	}

	total := 0
	for i, item := range items {
		total += entrySize(item)
		if total > maxBytes {
			return items[:i]
		}
	}
	return items
}

// Merge combines existing entries with imported ones, keeping the entry
// with the greater timestamp per (paperId, variant). The result is
// ordered most-recent-first.
func Merge(existing, incoming []Entry) []Entry {
	byKey := make(map[string]Entry, len(existing)+len(incoming))
	for _, item := range existing {
		byKey[item.key()] = item
	}
	for _, item := range incoming {
		if prior, ok := byKey[item.key()]; ok && !item.CreatedAt.After(prior.CreatedAt) {
			continue
		}
		byKey[item.key()] = item
	}

	out := make([]Entry, 0, len(byKey))
	for _, item := range byKey {
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
