package sanitizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey_DeterministicAndSixteenHexChars(t *testing.T) {
	k1 := CacheKey("reasoner", "hello")
	k2 := CacheKey("reasoner", "hello")
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 16)
	assert.NotEqual(t, k1, CacheKey("technical", "hello"))
}

func TestResponseCache_GetMissThenHit(t *testing.T) {
	c := NewResponseCache(256, 300*time.Second)
	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Put("k", "response-value")
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "response-value", v)
}

func TestResponseCache_ExpiresAfterTTL(t *testing.T) {
	now := time.Now()
	c := NewResponseCache(256, 10*time.Second)
	c.now = func() time.Time { return now }

	c.Put("k", "v")
	now = now.Add(11 * time.Second)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestResponseCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewResponseCache(2, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3) // evicts "a"

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestResponseCache_GetMovesEntryToFront(t *testing.T) {
	c := NewResponseCache(2, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)

	c.Get("a") // a is now most recently used
	c.Put("c", 3) // should evict "b", not "a"

	_, ok := c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
}
