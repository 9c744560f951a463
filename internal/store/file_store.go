package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the key-value map as an indented JSON file, written
// through on every mutation. Suited to single-user deployments.
type FileStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]string
}

func NewFileStore(filePath string) *FileStore {
	return &FileStore{
		filePath: filePath,
		data:     make(map[string]string),
	}
}

// Load reads the backing file. A missing or empty file starts fresh; a
// corrupt file is logged and discarded rather than propagated, since
// persistence read errors are treated as absent data.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read store file: %w", err)
	}

	if len(raw) == 0 {
		return nil
	}

	var data map[string]string
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Printf("Store file %s is corrupt, starting fresh: %v", s.filePath, err)
		s.data = make(map[string]string)
		return nil
	}
	s.data = data
	return nil
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.save()
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return s.save()
}

// save writes the current map; callers hold the lock.
func (s *FileStore) save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	if err := os.WriteFile(s.filePath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	return nil
}
