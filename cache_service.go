package postboard

import (
	"context"
	"sync"
	"time"
)

// CacheService defines the interface for caching operations
type CacheService interface {
	// Set stores a value in the cache with the given key, tags, and duration
	Set(ctx context.Context, key string, data []byte, tags []string, duration time.Duration) error

	// Get retrieves a value from the cache by key; a miss is (nil, nil)
	Get(ctx context.Context, key string) ([]byte, error)

	// Invalidate removes all cache entries associated with the given tags
	Invalidate(ctx context.Context, tags ...string) error
}

// MemoryCacheService keeps entries in process memory with a tag index for invalidation.
type MemoryCacheService struct {
	mu      sync.Mutex
	entries map[string]*CacheEntry
	tags    map[string]map[string]struct{}
	now     func() time.Time
}

func NewMemoryCacheService() *MemoryCacheService {
	return &MemoryCacheService{
		entries: make(map[string]*CacheEntry),
		tags:    make(map[string]map[string]struct{}),
		now:     time.Now,
	}
}

func (s *MemoryCacheService) Set(_ context.Context, key string, data []byte, tags []string, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteLocked(key)

	now := s.now()
	s.entries[key] = &CacheEntry{
		Key:       key,
		Data:      append([]byte(nil), data...),
		Tags:      append([]string(nil), tags...),
		ExpiresAt: now.Add(duration),
		CreatedAt: now,
	}
	for _, tag := range tags {
		keys, ok := s.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			s.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

func (s *MemoryCacheService) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if entry.IsExpired(s.now()) {
		s.deleteLocked(key)
		return nil, nil
	}
	return entry.Data, nil
}

func (s *MemoryCacheService) Invalidate(_ context.Context, tags ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tag := range tags {
		for key := range s.tags[tag] {
			s.deleteLocked(key)
		}
		delete(s.tags, tag)
	}
	return nil
}

// Len counts live and expired-but-unread entries.
func (s *MemoryCacheService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryCacheService) deleteLocked(key string) {
	entry, ok := s.entries[key]
	if !ok {
		return
	}
	delete(s.entries, key)
	for _, tag := range entry.Tags {
		if keys, ok := s.tags[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(s.tags, tag)
			}
		}
	}
}
