package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[[]string](2, time.Minute)

	_, ok := c.Get(ctx, "news")
	assert.False(t, ok)

	c.Set(ctx, "news", []string{"a", "b"})
	got, ok := c.Get(ctx, "news")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	c.Delete(ctx, "news")
	_, ok = c.Get(ctx, "news")
	assert.False(t, ok)
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[int](2, time.Minute)

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Get(ctx, "a")
	c.Set(ctx, "c", 3)

	_, ok := c.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)

	now = now.Add(2 * time.Minute)
	c.Set(ctx, "c", 3)

	assert.Equal(t, 2, c.CleanExpired())
	assert.Equal(t, 1, c.Size())
	_, ok := c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestManagerStartStop(t *testing.T) {
	m := NewManager()
	c := NewLRUCache[int](1, time.Nanosecond)
	c.Set(context.Background(), "a", 1)
	m.Register(c)
	m.Register("not a cache")

	m.StartCleanup(time.Millisecond)
	assert.Eventually(t, func() bool { return c.Size() == 0 }, time.Second, 5*time.Millisecond)
	m.Stop()
}
