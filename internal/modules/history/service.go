package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/paperlens/core/internal/modules/paper"
	"github.com/redis/go-redis/v9"
)

const storeKey = "pl:history"

// Blobs is the persistence contract the store needs: opaque keyed blob
// reads and writes, nothing more.
type Blobs interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// RedisBlobs backs Blobs with the shared redis connection.
type RedisBlobs struct {
	Client *redis.Client
}

func (r *RedisBlobs) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (r *RedisBlobs) Set(ctx context.Context, key string, value []byte) error {
	return r.Client.Set(ctx, key, value, 0).Err()
}

// Service owns the history blob. Every mutation is a whole
// read-modify-write under one lock; the backing store offers no
// transactions.
type Service struct {
	blobs    Blobs
	maxItems int
	maxBytes int

	mu sync.Mutex
}

func NewService(blobs Blobs, maxItems, maxBytes int) *Service {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{blobs: blobs, maxItems: maxItems, maxBytes: maxBytes}
}

func (s *Service) load(ctx context.Context) ([]Entry, error) {
	raw, ok, err := s.blobs.Get(ctx, storeKey)
	if err != nil {
		return nil, fmt.Errorf("history load failed: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var items []Entry
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("history blob is corrupt: %w", err)
	}
	return items, nil
}

func (s *Service) store(ctx context.Context, items []Entry) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := s.blobs.Set(ctx, storeKey, raw); err != nil {
		return fmt.Errorf("history store failed: %w", err)
	}
	return nil
}

// Save records one summary, superseding any prior entry for the same
// (paperId, variant) and applying the count and byte bounds.
func (s *Service) Save(ctx context.Context, e Entry) error {
	if e.PaperID == "" {
		e.PaperID = paper.NormalizeID(e.URL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return err
	}
	return s.store(ctx, Insert(items, e, s.maxItems, s.maxBytes))
}

// List returns all entries, most recent first.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Find returns the entry for (paperId, variant), if any.
func (s *Service) Find(ctx context.Context, paperID string, variant string) (*Entry, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.PaperID == paperID && string(item.Variant) == variant {
			entry := item
			return &entry, nil
		}
	}
	return nil, nil
}

// Delete removes the entry for (paperId, variant). Reports whether an
// entry was removed.
func (s *Service) Delete(ctx context.Context, paperID string, variant string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	out := items[:0]
	removed := false
	for _, item := range items {
		if item.PaperID == paperID && string(item.Variant) == variant {
			removed = true
			continue
		}
		out = append(out, item)
	}
	if !removed {
		return false, nil
	}
	return true, s.store(ctx, out)
}

// Clear drops the whole history.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store(ctx, nil)
}

// Export snapshots the history into the interchange format.
func (s *Service) Export(ctx context.Context) (*ExportFile, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewExportFile(items), nil
}

// Import validates the whole file, then merges it into the history
// keeping the newer entry per (paperId, variant). Returns the merged
// entry count. A validation failure aborts with no partial merge.
func (s *Service) Import(ctx context.Context, file *ExportFile) (int, error) {
	if err := ValidateImport(file); err != nil {
		return 0, err
	}

	incoming := make([]Entry, 0, len(file.Items))
	for _, item := range file.Items {
		if item.PaperID == "" {
			item.PaperID = paper.NormalizeID(item.URL)
		}
		incoming = append(incoming, item)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	merged := Evict(Merge(existing, incoming), s.maxItems, s.maxBytes)
	if err := s.store(ctx, merged); err != nil {
		return 0, err
	}
	return len(merged), nil
}
