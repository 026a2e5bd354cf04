package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c := New(time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", 42)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestCache_Expiry(t *testing.T) {
	c := New(10 * time.Millisecond)
	c.Set("k", "v")

	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	c := New(time.Minute)
	c.Set("k", "v")
	c.Invalidate("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_Fetch(t *testing.T) {
	c := New(time.Minute)

	calls := 0
	load := func() (any, error) {
		calls++
		return "loaded", nil
	}

	v, err := c.Fetch("k", load)
	require.NoError(t, err)
	assert.Equal(t, "loaded", v)

	// Second fetch hits the cache.
	v, err = c.Fetch("k", load)
	require.NoError(t, err)
	assert.Equal(t, "loaded", v)
	assert.Equal(t, 1, calls)
}

func TestCache_FetchErrorNotCached(t *testing.T) {
	c := New(time.Minute)

	boom := errors.New("backend down")
	_, err := c.Fetch("k", func() (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	v, err := c.Fetch("k", func() (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}
