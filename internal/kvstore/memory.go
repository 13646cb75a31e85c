package kvstore

import (
	"context"
	"sort"
	"strings"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps values in process memory. Nothing survives a restart.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemory returns an empty MemoryStore whose entries never expire.
func NewMemory() *MemoryStore {
	return &MemoryStore{cache: gocache.New(gocache.NoExpiration, 0)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.cache.Set(key, value, gocache.NoExpiration)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.cache.Delete(key)
	}
	return nil
}

func (m *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range m.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Close() error {
	m.cache.Flush()
	return nil
}
