package patch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// MemoryStorage keeps decoded file contents in a map. It is safe for
// concurrent use and is mostly useful in tests and dry runs.
type MemoryStorage struct {
	mu     sync.RWMutex
	files  map[string]string
	writes int
}

// NewMemoryStorage copies files into a new MemoryStorage.
func NewMemoryStorage(files map[string]string) *MemoryStorage {
	snapshot := make(map[string]string, len(files))
	for k, v := range files {
		snapshot[cleanKey(k)] = v
	}
	return &MemoryStorage{files: snapshot}
}

func cleanKey(path string) string {
	return filepath.Clean(strings.TrimSpace(path))
}

func (m *MemoryStorage) key(path string) (string, error) {
	k := cleanKey(path)
	if k == "" || k == "." {
		return "", fmt.Errorf("invalid file path")
	}
	return k, nil
}

// Read returns the stored document for path.
func (m *MemoryStorage) Read(ctx context.Context, path, encoding string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if _, err := lookupEncoding(encoding); err != nil {
		return Document{}, err
	}
	k, err := m.key(path)
	if err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	content, ok := m.files[k]
	m.mu.RUnlock()
	if !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return NewDocument(path, content), nil
}

// Exists reports whether path is stored.
func (m *MemoryStorage) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	k, err := m.key(path)
	if err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[k]
	return ok, nil
}

// WriteAtomic stores content under path. Content that cannot be represented in
// the requested encoding is rejected without touching the stored value.
func (m *MemoryStorage) WriteAtomic(ctx context.Context, path, encoding, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := m.key(path)
	if err != nil {
		return err
	}
	if _, err := Encode(content, encoding); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[k] = content
	m.writes++
	return nil
}

// Snapshot returns a copy of every stored file.
func (m *MemoryStorage) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.files))
	for k, v := range m.files {
		out[k] = v
	}
	return out
}

// Writes counts successful WriteAtomic calls.
func (m *MemoryStorage) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
