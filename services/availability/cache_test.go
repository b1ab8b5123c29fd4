package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"bettermind/models"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func sampleSlots() []models.TimeSlot {
	return []models.TimeSlot{{Start: at(9, 0), End: at(10, 0)}, {Start: at(14, 0), End: at(15, 0)}}
}

func TestMemoryCache_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: at(8, 0)}
	cache := NewMemoryCache(DefaultCacheTTL, clock.Now)

	require.NoError(t, cache.Set(ctx, "k", sampleSlots()))

	clock.Advance(59 * time.Second)
	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleSlots(), got)

	clock.Advance(time.Second)
	_, ok, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_Miss(t *testing.T) {
	_, ok, err := NewMemoryCache(time.Minute, nil).Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, DefaultCacheTTL), mr
}

func TestRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestRedisCache(t)

	require.NoError(t, cache.Set(ctx, "doc-1-2024-06-01", sampleSlots()))
	assert.True(t, mr.Exists("availability:doc-1-2024-06-01"))

	got, ok, err := cache.Get(ctx, "doc-1-2024-06-01")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.True(t, got[0].Start.Equal(at(9, 0)))
	assert.True(t, got[1].End.Equal(at(15, 0)))
}

func TestRedisCache_KeyExpires(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestRedisCache(t)

	require.NoError(t, cache.Set(ctx, "k", sampleSlots()))
	mr.FastForward(61 * time.Second)

	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_StaleEntryIgnored(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestRedisCache(t)
	clock := &fakeClock{t: time.Now()}
	cache.now = clock.Now

	require.NoError(t, cache.Set(ctx, "k", sampleSlots()))
	clock.Advance(2 * time.Minute)

	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestRedisCache(t)
	require.NoError(t, mr.Set("availability:k", "not-json"))

	_, ok, err := cache.Get(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]models.TimeSlot, bool, error) {
	return nil, false, errors.New("redis down")
}

func (failingCache) Set(context.Context, string, []models.TimeSlot) error {
	return errors.New("redis down")
}

func TestGetOrCompute_CacheFailureFallsThrough(t *testing.T) {
	calls := 0
	got, err := GetOrCompute(context.Background(), failingCache{}, "k", zap.NewNop(),
		func(context.Context) ([]models.TimeSlot, error) {
			calls++
			return sampleSlots(), nil
		})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, sampleSlots(), got)
}

func TestGetOrCompute_ComputeErrorNotCached(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(time.Minute, nil)
	boom := errors.New("boom")

	_, err := GetOrCompute(ctx, cache, "k", zap.NewNop(), func(context.Context) ([]models.TimeSlot, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	_, ok, _ := cache.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCache_CallersCannotMutateEntries(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(DefaultCacheTTL, nil)
	stored := sampleSlots()
	require.NoError(t, cache.Set(ctx, "k", stored))

	stored[0].Start = at(16, 0)
	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	got[1].Start = at(16, 0)

	again, _, _ := cache.Get(ctx, "k")
	assert.Equal(t, sampleSlots(), again)
}
