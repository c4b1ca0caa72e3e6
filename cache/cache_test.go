package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withClock installs a manual clock so TTL behavior is deterministic.
func withClock(c *Cache) *time.Time {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return &now
}

func TestGetSet(t *testing.T) {
	c := New(10)
	c.Set("loans:all", []string{"l1"}, time.Minute)

	v, ok := c.Get("loans:all")
	require.True(t, ok)
	assert.Equal(t, []string{"l1"}, v)

	_, ok = c.Get("loans:other")
	assert.False(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	c := New(10)
	now := withClock(c)

	c.Set("resources:r1", "v", time.Minute)
	assert.True(t, c.Has("resources:r1"))

	*now = now.Add(61 * time.Second)
	_, ok := c.Get("resources:r1")
	assert.False(t, ok, "entry past TTL must read as absent")
	assert.Equal(t, 0, c.Len(), "expired entry must be evicted on read")
}

func TestCapacityEvictsOldestWrite(t *testing.T) {
	c := New(2)
	now := withClock(c)

	c.Set("a", 1, time.Hour)
	*now = now.Add(time.Second)
	c.Set("b", 2, time.Hour)
	*now = now.Add(time.Second)
	c.Set("c", 3, time.Hour)

	assert.False(t, c.Has("a"), "oldest-written entry evicted")
	assert.True(t, c.Has("b"))
	assert.True(t, c.Has("c"))
	assert.Equal(t, 2, c.Len())
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c := New(2)
	c.Set("a", 1, time.Hour)
	c.Set("b", 2, time.Hour)
	c.Set("a", 10, time.Hour)

	assert.True(t, c.Has("a"))
	assert.True(t, c.Has("b"))
}

func TestInvalidatePrefix(t *testing.T) {
	c := New(10)
	c.Set("loans:all", 1, time.Hour)
	c.Set("loans:l1", 2, time.Hour)
	c.Set("resources:all", 3, time.Hour)

	c.Invalidate(KeyLoans)
	assert.False(t, c.Has("loans:all"))
	assert.False(t, c.Has("loans:l1"))
	assert.True(t, c.Has("resources:all"))

	c.Invalidate("")
	assert.Equal(t, 0, c.Len())
}
