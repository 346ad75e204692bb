package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

const (
	mappingKey  = "pl:notion:mapping"
	databaseKey = "pl:notion:database"
)

// Mapping links one paper to its remote documents: the abstract anchor
// page and, once created, the latest full-analysis child page.
type Mapping struct {
	AbstractDocID string `json:"abstractDocId,omitempty"`
	FullDocID     string `json:"fullDocId,omitempty"`
}

// Blobs is the keyed-blob persistence contract; satisfied by the shared
// redis-backed blob store.
type Blobs interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// MappingStore persists the paperId -> Mapping table as one blob,
// read-modify-written whole under a lock.
type MappingStore struct {
	blobs Blobs
	mu    sync.Mutex
}

func NewMappingStore(blobs Blobs) *MappingStore {
	return &MappingStore{blobs: blobs}
}

func (s *MappingStore) load(ctx context.Context) (map[string]Mapping, error) {
	raw, ok, err := s.blobs.Get(ctx, mappingKey)
	if err != nil {
		return nil, fmt.Errorf("mapping load failed: %w", err)
	}
	table := map[string]Mapping{}
	if !ok {
		return table, nil
	}
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("mapping blob is corrupt: %w", err)
	}
	return table, nil
}

func (s *MappingStore) store(ctx context.Context, table map[string]Mapping) error {
	raw, err := json.Marshal(table)
	if err != nil {
		return err
	}
	if err := s.blobs.Set(ctx, mappingKey, raw); err != nil {
		return fmt.Errorf("mapping store failed: %w", err)
	}
	return nil
}

// Get returns the mapping for a paper, zero-valued when absent.
func (s *MappingStore) Get(ctx context.Context, paperID string) (Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, err := s.load(ctx)
	if err != nil {
		return Mapping{}, err
	}
	return table[paperID], nil
}

// Update applies fn to the paper's mapping atomically.
func (s *MappingStore) Update(ctx context.Context, paperID string, fn func(*Mapping)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.load(ctx)
	if err != nil {
		return err
	}
	m := table[paperID]
	fn(&m)
	table[paperID] = m
	return s.store(ctx, table)
}

// DatabaseID returns the cached provisioned database id, if any.
func (s *MappingStore) DatabaseID(ctx context.Context) (string, error) {
	raw, ok, err := s.blobs.Get(ctx, databaseKey)
	if err != nil || !ok {
		return "", err
	}
	return string(raw), nil
}

// SetDatabaseID caches the provisioned database id.
func (s *MappingStore) SetDatabaseID(ctx context.Context, id string) error {
	return s.blobs.Set(ctx, databaseKey, []byte(id))
}
