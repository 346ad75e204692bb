package history

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/paperlens/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(paperID string, variant models.Variant, createdAt time.Time) Entry {
	return Entry{
		PaperID:    paperID,
		Variant:    variant,
		Title:      "title " + paperID,
		URL:        "https://arxiv.org/abs/" + paperID,
		Markdown:   "# summary for " + paperID,
		ProviderID: "claude",
		CreatedAt:  createdAt,
	}
}

func TestInsertDedupesOnPaperAndVariant(t *testing.T) {
	now := time.Now()
	items := []Entry{
		entry("p1", models.VariantAbstract, now.Add(-time.Hour)),
		entry("p2", models.VariantAbstract, now.Add(-2*time.Hour)),
	}

	updated := entry("p1", models.VariantAbstract, now)
	updated.Markdown = "# new content"
	out := Insert(items, updated, 0, 0)

	require.Len(t, out, 2)
	assert.Equal(t, "# new content", out[0].Markdown)
	assert.Equal(t, "p2", out[1].PaperID)

	count := 0
	for _, item := range out {
		if item.PaperID == "p1" && item.Variant == models.VariantAbstract {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestInsertKeepsVariantsSeparate(t *testing.T) {
	now := time.Now()
	items := []Entry{entry("p1", models.VariantAbstract, now.Add(-time.Hour))}
	out := Insert(items, entry("p1", models.VariantFull, now), 0, 0)
	assert.Len(t, out, 2)
}

func TestEvictByCount(t *testing.T) {
	now := time.Now()
	var items []Entry
	for i := 0; i < 60; i++ {
		items = append(items, entry(strings.Repeat("p", i+1), models.VariantAbstract, now))
	}
	out := Evict(items, 0, 0)
	assert.Len(t, out, DefaultMaxItems)
}

func TestEvictByBytes(t *testing.T) {
	now := time.Now()
	big := entry("p1", models.VariantAbstract, now)
	big.Markdown = strings.Repeat("a", 3000)
	items := []Entry{big, entry("p2", models.VariantAbstract, now), entry("p3", models.VariantAbstract, now)}

	out := Evict(items, 50, entrySize(big)+10)
	assert.Len(t, out, 1)
	assert.Equal(t, "p1", out[0].PaperID)
}

func TestMergeKeepsNewerEntry(t *testing.T) {
	now := time.Now()
	existing := []Entry{entry("p1", models.VariantAbstract, now)}
	older := entry("p1", models.VariantAbstract, now.Add(-time.Hour))
	older.Markdown = "# stale"

	out := Merge(existing, []Entry{older})

	require.Len(t, out, 1)
	assert.Equal(t, existing[0].Markdown, out[0].Markdown)
	assert.True(t, out[0].CreatedAt.Equal(now))
}

func TestMergePrefersNewerImport(t *testing.T) {
	now := time.Now()
	existing := []Entry{entry("p1", models.VariantAbstract, now.Add(-time.Hour))}
	newer := entry("p1", models.VariantAbstract, now)
	newer.Markdown = "# fresh"

	out := Merge(existing, []Entry{newer})
	require.Len(t, out, 1)
	assert.Equal(t, "# fresh", out[0].Markdown)
}

func TestMergeOrdersMostRecentFirst(t *testing.T) {
	now := time.Now()
	out := Merge(
		[]Entry{entry("old", models.VariantAbstract, now.Add(-2*time.Hour))},
		[]Entry{entry("new", models.VariantAbstract, now)},
	)
	require.Len(t, out, 2)
	assert.Equal(t, "new", out[0].PaperID)
	assert.Equal(t, "old", out[1].PaperID)
}

// memBlobs is an in-memory Blobs for tests.
type memBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemBlobs() *memBlobs { return &memBlobs{data: map[string][]byte{}} }

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	return raw, ok, nil
}

func (m *memBlobs) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func TestServiceSaveAndList(t *testing.T) {
	svc := NewService(newMemBlobs(), 0, 0)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, entry("p1", models.VariantAbstract, time.Now())))
	require.NoError(t, svc.Save(ctx, entry("p2", models.VariantAbstract, time.Now())))

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p2", items[0].PaperID)
}

func TestServiceSaveDerivesPaperIDFromURL(t *testing.T) {
	svc := NewService(newMemBlobs(), 0, 0)
	ctx := context.Background()

	e := entry("", models.VariantAbstract, time.Now())
	e.URL = "https://arxiv.org/abs/2401.12345?context=cs"
	require.NoError(t, svc.Save(ctx, e))

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2401.12345", items[0].PaperID)
}

func TestServiceDelete(t *testing.T) {
	svc := NewService(newMemBlobs(), 0, 0)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, entry("p1", models.VariantAbstract, time.Now())))

	removed, err := svc.Delete(ctx, "p1", string(models.VariantAbstract))
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.Delete(ctx, "p1", string(models.VariantAbstract))
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestServiceImportKeepsNewerExisting(t *testing.T) {
	svc := NewService(newMemBlobs(), 0, 0)
	ctx := context.Background()

	now := time.Now()
	existing := entry("p1", models.VariantAbstract, now)
	existing.Markdown = "# current"
	require.NoError(t, svc.Save(ctx, existing))

	older := entry("p1", models.VariantAbstract, now.Add(-time.Hour))
	older.Markdown = "# from backup"

	count, err := svc.Import(ctx, NewExportFile([]Entry{older}))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "# current", items[0].Markdown)
}

func TestServiceImportRejectsInvalidFile(t *testing.T) {
	svc := NewService(newMemBlobs(), 0, 0)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, entry("p1", models.VariantAbstract, time.Now())))

	bad := NewExportFile([]Entry{{Variant: models.VariantAbstract}})
	_, err := svc.Import(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidImport)

	// Aborted import leaves the history untouched.
	items, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestServiceImportRejectsWrongVersion(t *testing.T) {
	svc := NewService(newMemBlobs(), 0, 0)
	file := NewExportFile(nil)
	file.Version = 2
	_, err := svc.Import(context.Background(), file)
	assert.ErrorIs(t, err, ErrInvalidImport)
}

func TestExportRoundTripShape(t *testing.T) {
	svc := NewService(newMemBlobs(), 0, 0)
	ctx := context.Background()
	require.NoError(t, svc.Save(ctx, entry("p1", models.VariantFull, time.Now())))

	file, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExportVersion, file.Version)
	assert.Equal(t, 1, file.Count)
	assert.False(t, file.ExportedAt.IsZero())
	require.Len(t, file.Items, 1)
}
