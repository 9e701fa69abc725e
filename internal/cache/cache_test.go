package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(ttl time.Duration, size int) (*Cache[string, int], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCache[string, int](ttl, size)
	c.now = clock.now
	return c, clock
}

func TestCache_SetGet(t *testing.T) {
	c, _ := newTestCache(time.Minute, 10)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, c.Size())

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c, clock := newTestCache(time.Minute, 10)

	c.Set("a", 1)
	c.SetWithTTL("b", 2, time.Hour)

	clock.t = clock.t.Add(2 * time.Minute)
	_, ok := c.Get("a")
	assert.False(t, ok)

	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Size())
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, clock := newTestCache(time.Hour, 2)

	c.Set("a", 1)
	clock.t = clock.t.Add(time.Second)
	c.Set("b", 2)
	clock.t = clock.t.Add(time.Second)
	_, _ = c.Get("a")

	clock.t = clock.t.Add(time.Second)
	c.Set("c", 3)

	assert.Equal(t, 2, c.Size())
	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestCache_EvictsExpiredFirst(t *testing.T) {
	c, clock := newTestCache(time.Hour, 2)

	c.SetWithTTL("short", 1, time.Second)
	clock.t = clock.t.Add(time.Millisecond)
	c.Set("long", 2)

	clock.t = clock.t.Add(2 * time.Second)
	c.Set("new", 3)

	_, ok := c.Get("long")
	assert.True(t, ok)
	_, ok = c.Get("new")
	assert.True(t, ok)
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c, _ := newTestCache(time.Hour, 1)

	c.Set("a", 1)
	c.Set("a", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestCache_GetOrLoad(t *testing.T) {
	c, _ := newTestCache(time.Hour, 10)
	calls := 0

	load := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.GetOrLoad("k", load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = c.GetOrLoad("k", load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)

	_, err = c.GetOrLoad("bad", func() (int, error) { return 0, fmt.Errorf("boom") })
	assert.Error(t, err)
	_, ok := c.Get("bad")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Size())
}
