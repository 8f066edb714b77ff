package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Backend is the persistence port: a namespaced key-value store mapping
// collection name to a JSON-serialized array. The store reads each key
// once at construction and writes after every change.
type Backend interface {
	// Load unmarshals the value for key into v. It returns false when
	// the key is absent; corrupt payloads are reported as errors so the
	// caller can fall back to defaults.
	Load(key string, v any) (bool, error)
	// Save marshals v and stores it under key.
	Save(key string, v any) error
}

// FileBackend persists each collection as <dir>/<key>.json.
type FileBackend struct {
	dir string
}

// NewFileBackend ensures dir exists and returns a backend rooted there.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileBackend) Load(key string, v any) (bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return true, nil
}

func (f *FileBackend) Save(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return os.WriteFile(f.path(key), data, 0644)
}

// MemoryBackend keeps collections in a map. Used by tests and the
// one-shot CLI mode.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string]json.RawMessage
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]json.RawMessage)}
}

func (m *MemoryBackend) Load(key string, v any) (bool, error) {
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return true, nil
}

func (m *MemoryBackend) Save(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}
