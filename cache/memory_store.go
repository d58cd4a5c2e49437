package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore implements Store using ttlcache.
type MemoryStore struct {
	cache *ttlcache.Cache[string, []byte]
}

// NewMemoryStore creates a new in-memory store with automatic cleanup.
func NewMemoryStore() *MemoryStore {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)

	// Start the cleanup process
	go cache.Start()

	return &MemoryStore{
		cache: cache,
	}
}

// Set implements Store.Set.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.cache.Set(key, value, ttl)
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := s.cache.Get(key)
	if item == nil || item.IsExpired() {
		return nil, false, nil
	}

	return item.Value(), true, nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)

	return nil
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.cache.Stop()

	return nil
}
