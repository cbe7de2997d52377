package blob

import (
	"context"
	"strings"
	"sync"
)

// Object is a blob held by MemoryStore.
type Object struct {
	ContentType string
	Data        []byte
}

// MemoryStore keeps blobs in process and serves them under baseURL.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]Object
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

func (m *MemoryStore) Put(_ context.Context, folder string, data []byte, contentType string) (string, error) {
	name := objectName(folder, contentType)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = Object{ContentType: contentType, Data: append([]byte(nil), data...)}
	return m.baseURL + "/" + name, nil
}

// Get returns the object stored under name (folder/file).
func (m *MemoryStore) Get(name string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[strings.TrimPrefix(name, "/")]
	return obj, ok
}

// Len reports how many objects are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
