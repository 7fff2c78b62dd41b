package repository

import (
	"context"
	"sync"
	"time"
)

type MemoryCacheRepository struct {
	entries    sync.Map
	rateLimits sync.Map
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryCacheRepository() *MemoryCacheRepository {
	return &MemoryCacheRepository{}
}

func (r *MemoryCacheRepository) Get(ctx context.Context, key string) (string, error) {
	val, ok := r.entries.Load(key)
	if !ok {
		return "", ErrCacheMiss
	}
	entry := val.(*cacheEntry)
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		r.entries.Delete(key)
		return "", ErrCacheMiss
	}
	return entry.value, nil
}

func (r *MemoryCacheRepository) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	entry := &cacheEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	r.entries.Store(key, entry)
	return nil
}

func (r *MemoryCacheRepository) Delete(ctx context.Context, key string) error {
	r.entries.Delete(key)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryCacheRepository) CheckRateLimit(ctx context.Context, clientID string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(clientID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(clientID, entry)
	return entry.count <= limit, nil
}
