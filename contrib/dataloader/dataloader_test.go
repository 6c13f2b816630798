package dataloader

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID     int
	UserID int
	Name   string
}

// =============================================================================
// Batching Tests
// =============================================================================

func TestUnique(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"b", "a", "c"}, Unique([]string{"b", "a", "b", "c", "a"}))
	assert.Empty(t, Unique([]int{}))
}

func TestChunk(t *testing.T) {
	t.Parallel()

	t.Run("splits", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Chunk([]int{1, 2, 3, 4, 5}, 2))
	})

	t.Run("single batch", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, [][]int{{1, 2, 3}}, Chunk([]int{1, 2, 3}, 0))
		assert.Equal(t, [][]int{{1, 2, 3}}, Chunk([]int{1, 2, 3}, 3))
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, Chunk([]int{}, 2))
	})

	t.Run("batches do not share capacity", func(t *testing.T) {
		t.Parallel()
		batches := Chunk([]int{1, 2, 3, 4}, 2)
		batches[0] = append(batches[0], 99)
		assert.Equal(t, []int{3, 4}, batches[1])
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("deduplicates and batches", func(t *testing.T) {
		t.Parallel()
		var (
			mu    sync.Mutex
			calls [][]int
		)
		fn := func(_ context.Context, keys []int) ([]*row, error) {
			mu.Lock()
			calls = append(calls, keys)
			mu.Unlock()
			out := make([]*row, len(keys))
			for i, k := range keys {
				out[i] = &row{ID: k}
			}
			return out, nil
		}
		rows, err := Load(context.Background(), []int{1, 2, 2, 3, 4, 5, 1}, 2, fn)
		require.NoError(t, err)
		require.Len(t, rows, 5)
		assert.Len(t, calls, 3)
		ids := make([]int, len(rows))
		for i, r := range rows {
			ids[i] = r.ID
		}
		assert.Equal(t, []int{1, 2, 3, 4, 5}, ids, "values keep batch order")
	})

	t.Run("no keys", func(t *testing.T) {
		t.Parallel()
		rows, err := Load(context.Background(), nil, 2, func(context.Context, []int) ([]*row, error) {
			t.Fatal("unexpected batch")
			return nil, nil
		})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		_, err := Load(context.Background(), []int{1, 2, 3}, 1, func(_ context.Context, keys []int) ([]*row, error) {
			if keys[0] == 2 {
				return nil, boom
			}
			return []*row{{ID: keys[0]}}, nil
		})
		assert.ErrorIs(t, err, boom)
	})
}

// =============================================================================
// Ordering Tests
// =============================================================================

func TestOrderByKeys(t *testing.T) {
	t.Parallel()

	keyFn := func(e *row) int { return e.ID }

	t.Run("all keys found", func(t *testing.T) {
		t.Parallel()
		keys := []int{1, 2, 3}
		values := []*row{
			{ID: 3, Name: "third"},
			{ID: 1, Name: "first"},
			{ID: 2, Name: "second"},
		}

		result, errs := OrderByKeys(keys, values, keyFn)

		require.Len(t, result, 3)
		require.Len(t, errs, 3)
		assert.Equal(t, "first", result[0].Name)
		assert.Equal(t, "second", result[1].Name)
		assert.Equal(t, "third", result[2].Name)
		for _, err := range errs {
			assert.NoError(t, err)
		}
	})

	t.Run("some keys missing", func(t *testing.T) {
		t.Parallel()
		keys := []int{1, 2, 3, 4}
		values := []*row{
			{ID: 1, Name: "first"},
			{ID: 3, Name: "third"},
		}

		result, errs := OrderByKeys(keys, values, keyFn)

		require.Len(t, result, 4)
		assert.Nil(t, result[1])
		assert.Nil(t, result[3])
		assert.NoError(t, errs[0])
		assert.ErrorIs(t, errs[1], ErrNotFound)
		assert.ErrorIs(t, errs[3], ErrNotFound)
	})

	t.Run("duplicate keys", func(t *testing.T) {
		t.Parallel()
		result, errs := OrderByKeys([]int{1, 1, 2}, []*row{{ID: 1, Name: "first"}, {ID: 2, Name: "second"}}, keyFn)

		require.Len(t, result, 3)
		assert.Equal(t, "first", result[1].Name)
		for _, err := range errs {
			assert.NoError(t, err)
		}
	})

	t.Run("no error variant", func(t *testing.T) {
		t.Parallel()
		result := OrderByKeysNoError([]int{1, 2}, []*row{{ID: 2, Name: "second"}}, keyFn)

		require.Len(t, result, 2)
		assert.Nil(t, result[0])
		assert.Equal(t, "second", result[1].Name)
	})
}

// =============================================================================
// GroupByKey Tests
// =============================================================================

func TestGroupByKey(t *testing.T) {
	t.Parallel()

	keyFn := func(p *row) int { return p.UserID }
	posts := []*row{
		{ID: 1, UserID: 10, Name: "Post 1"},
		{ID: 2, UserID: 10, Name: "Post 2"},
		{ID: 3, UserID: 20, Name: "Post 3"},
		{ID: 4, UserID: 10, Name: "Post 4"},
	}

	grouped := GroupByKey(posts, keyFn)
	require.Len(t, grouped[10], 3)
	require.Len(t, grouped[20], 1)
	assert.Equal(t, "Post 4", grouped[10][2].Name)

	ordered := OrderGroupsByKeys([]int{20, 30, 10}, grouped)
	require.Len(t, ordered, 3)
	assert.Len(t, ordered[0], 1)
	assert.Nil(t, ordered[1])
	assert.Len(t, ordered[2], 3)

	keys := make([]int, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	assert.Equal(t, []int{10, 20}, keys)
}

func BenchmarkOrderByKeys(b *testing.B) {
	keys := make([]int, 1000)
	values := make([]*row, 1000)
	for i := range keys {
		keys[i] = i
		values[len(values)-1-i] = &row{ID: i}
	}
	keyFn := func(e *row) int { return e.ID }

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = OrderByKeys(keys, values, keyFn)
	}
}
