package cache

// Test Plan for the compute-on-miss cache:
// - GetOrCompute runs compute once per key and returns the stored value afterwards
// - errors are returned and not cached
// - concurrent first requests for one key compute exactly once
// - Purge empties the cache
// - non-positive capacity falls back to DefaultCapacity

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type artifact struct{ name string }

func TestGetOrCompute_ComputesOnce(t *testing.T) {
	t.Parallel()

	c := New[*artifact](16)
	defer c.Close()

	calls := 0
	compute := func() (*artifact, error) {
		calls++
		return &artifact{name: "a"}, nil
	}

	first, err := c.GetOrCompute("a", compute)
	require.NoError(t, err)
	second, err := c.GetOrCompute("a", compute)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestGetOrCompute_ErrorsNotCached(t *testing.T) {
	t.Parallel()

	c := New[*artifact](16)
	defer c.Close()

	boom := errors.New("schema unavailable")
	_, err := c.GetOrCompute("k", func() (*artifact, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, ok := c.Get("k")
	assert.False(t, ok)

	v, err := c.GetOrCompute("k", func() (*artifact, error) { return &artifact{name: "k"}, nil })
	require.NoError(t, err)
	assert.Equal(t, "k", v.name)
}

func TestGetOrCompute_ConcurrentFirstAccess(t *testing.T) {
	t.Parallel()

	c := New[*artifact](16)
	defer c.Close()

	var calls atomic.Int32
	var wg sync.WaitGroup
	results := make([]*artifact, 32)

	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrCompute("shared", func() (*artifact, error) {
				calls.Add(1)
				return &artifact{name: "shared"}, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestPurgeAndLen(t *testing.T) {
	t.Parallel()

	c := New[string](0)
	defer c.Close()

	for _, k := range []string{"a", "b", "c"} {
		_, err := c.GetOrCompute(k, func() (string, error) { return k, nil })
		require.NoError(t, err)
	}
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 3, c.Stats().Entries)

	c.Purge()
	assert.Equal(t, 0, c.Len())
}
