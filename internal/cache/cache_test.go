package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/dshills/gocalc-mcp/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c := New(0)
	assert.Equal(t, DefaultSize, c.Size())
	assert.Equal(t, 0, c.Len())

	c = New(16)
	assert.Equal(t, 16, c.Size())
}

func TestGetSet(t *testing.T) {
	c := New(8)

	_, ok := c.Get("1 + 1")
	assert.False(t, ok)

	c.Set(Entry{Expression: "1 + 1", Value: 2, Consumed: 5})
	entry, ok := c.Get("1 + 1")
	require.True(t, ok)
	assert.Equal(t, 2.0, entry.Value)
	assert.Equal(t, 5, entry.Consumed)
	assert.NoError(t, entry.Err)

	t.Run("errors are cached", func(t *testing.T) {
		c.Set(Entry{Expression: "(1", Err: types.ErrMissingClosingParenthesis})
		entry, ok := c.Get("(1")
		require.True(t, ok)
		assert.ErrorIs(t, entry.Err, types.ErrMissingClosingParenthesis)
	})

	t.Run("returned entry is a copy", func(t *testing.T) {
		entry, ok := c.Get("1 + 1")
		require.True(t, ok)
		entry.Value = 99

		again, ok := c.Get("1 + 1")
		require.True(t, ok)
		assert.Equal(t, 2.0, again.Value)
	})
}

func TestCollisionIsMiss(t *testing.T) {
	c := New(8)
	c.Set(Entry{Expression: "2 * 2", Value: 4})

	// Plant an entry under a key whose stored expression differs
	c.cache.Add(Key("3 * 3"), &Entry{Expression: "not 3 * 3", Value: 4})

	_, ok := c.Get("3 * 3")
	assert.False(t, ok)
}

func TestEviction(t *testing.T) {
	c := New(4)
	for i := 0; i < 10; i++ {
		expr := fmt.Sprintf("%d + 0", i)
		c.Set(Entry{Expression: expr, Value: float64(i)})
	}

	assert.Equal(t, 4, c.Len())

	_, ok := c.Get("0 + 0")
	assert.False(t, ok, "oldest entry should be evicted")

	entry, ok := c.Get("9 + 0")
	require.True(t, ok)
	assert.Equal(t, 9.0, entry.Value)
}

func TestPurge(t *testing.T) {
	c := New(4)
	c.Set(Entry{Expression: "1", Value: 1})
	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestConcurrentAccess(t *testing.T) {
	c := New(64)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				expr := fmt.Sprintf("%d * %d", n, j%10)
				c.Set(Entry{Expression: expr, Value: float64(n * (j % 10))})
				if entry, ok := c.Get(expr); ok {
					assert.Equal(t, expr, entry.Expression)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 64)
}
