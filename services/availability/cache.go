package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"bettermind/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultCacheTTL is how long a computed slot list stays fresh.
const DefaultCacheTTL = 60 * time.Second

// SlotCache stores computed slot lists keyed by doctor and day. Entries older
// than the cache's TTL are reported as absent.
type SlotCache interface {
	Get(ctx context.Context, key string) ([]models.TimeSlot, bool, error)
	Set(ctx context.Context, key string, slots []models.TimeSlot) error
}

// CacheKey builds the cache key for a doctor's slots on the calendar day of date.
func CacheKey(doctorID string, date time.Time, loc *time.Location) string {
	return doctorID + "-" + date.In(loc).Format("2006-01-02")
}

// GetOrCompute returns the cached slots for key or computes, stores and
// returns them. Cache faults are logged and fall through to compute.
func GetOrCompute(
	ctx context.Context,
	cache SlotCache,
	key string,
	logger *zap.Logger,
	compute func(ctx context.Context) ([]models.TimeSlot, error),
) ([]models.TimeSlot, error) {
	slots, ok, err := cache.Get(ctx, key)
	if err != nil {
		logger.Warn("slot cache read failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		return slots, nil
	}

	slots, err = compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, key, slots); err != nil {
		logger.Warn("slot cache write failed", zap.String("key", key), zap.Error(err))
	}
	return slots, nil
}

type cacheEntry struct {
	Slots     []models.TimeSlot `json:"slots"`
	FetchedAt time.Time         `json:"fetchedAt"`
}

// MemoryCache is a process-local SlotCache. Stale entries are ignored on
// read and overwritten on the next write; nothing evicts them explicitly.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates an in-memory cache. A nil clock uses time.Now.
func NewMemoryCache(ttl time.Duration, now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{entries: make(map[string]cacheEntry), ttl: ttl, now: now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]models.TimeSlot, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(entry.FetchedAt) >= c.ttl {
		return nil, false, nil
	}
	return slices.Clone(entry.Slots), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, slots []models.TimeSlot) error {
	c.mu.Lock()
	c.entries[key] = cacheEntry{Slots: slices.Clone(slots), FetchedAt: c.now()}
	c.mu.Unlock()
	return nil
}

// RedisCache is a SlotCache shared by every API instance.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisCache creates a Redis-backed cache. Keys expire after ttl.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: "availability:", now: time.Now}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]models.TimeSlot, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false, fmt.Errorf("decode cached slots %s: %w", key, err)
	}
	if c.now().Sub(entry.FetchedAt) >= c.ttl {
		return nil, false, nil
	}
	return entry.Slots, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, slots []models.TimeSlot) error {
	raw, err := json.Marshal(cacheEntry{Slots: slots, FetchedAt: c.now()})
	if err != nil {
		return fmt.Errorf("encode slots %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
