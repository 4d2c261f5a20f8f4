// Package llmcache provides durable persistence of the prompt→response map
// shared by every pipeline run that points at the same cache file.
package llmcache

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// DefaultCacheFile is the cache location when none is configured.
const DefaultCacheFile = "llm_cache.json"

// Store persists the full prompt→response mapping. Implementations load
// and save the map wholesale; there is no incremental update and no
// eviction, so the map grows without bound across the cache's lifetime.
//
// Concurrent load-modify-save cycles from separate processes can interleave
// and silently drop an entry (last write wins). Entries are immutable once
// correct, so a lost write costs one re-generation, never a wrong answer.
type Store interface {
	// Load deserializes the full mapping. A missing file is not an error
	// and yields an empty map; parse and I/O failures return the error
	// alongside an empty, usable map so callers can degrade gracefully.
	Load() (map[string]string, error)

	// Save serializes the full mapping, overwriting any previous contents.
	Save(entries map[string]string) error
}

// FileStore is a Store backed by a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at the given path.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultCacheFile
	}
	return &FileStore{path: path}
}

// Path returns the cache file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() (map[string]string, error) {
	entries := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return entries, fmt.Errorf("failed to read cache file: %w", err)
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		// Corrupt cache is recoverable: start over with an empty map.
		return make(map[string]string), fmt.Errorf("failed to parse cache file: %w", err)
	}

	return entries, nil
}

func (s *FileStore) Save(entries map[string]string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// MemoryStore is an in-memory Store for tests and cache-disabled runs.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (s *MemoryStore) Load() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		copied[k] = v
	}
	return copied, nil
}

func (s *MemoryStore) Save(entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make(map[string]string, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	s.entries = copied
	return nil
}
