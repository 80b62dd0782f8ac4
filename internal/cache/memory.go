package cache

import "github.com/puzpuzpuz/xsync/v3"

type memoryBackend struct {
	entries *xsync.MapOf[string, Entry]
}

// NewMemoryBackend returns a Backend that keeps entries in a concurrent
// in-process map. Nothing is evicted except through Delete.
func NewMemoryBackend() Backend {
	return &memoryBackend{entries: xsync.NewMapOf[string, Entry]()}
}

func (m *memoryBackend) Load(key string) (Entry, bool) {
	return m.entries.Load(key)
}

func (m *memoryBackend) Store(key string, e Entry) {
	m.entries.Store(key, e)
}

func (m *memoryBackend) Delete(key string) {
	m.entries.Delete(key)
}

func (m *memoryBackend) Keys() []string {
	keys := make([]string, 0, m.entries.Size())
	m.entries.Range(func(key string, _ Entry) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}
