package fibheap

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractOrder(t *testing.T) {
	h := New[string]()
	h.Insert(5, "e")
	h.Insert(1, "a")
	h.Insert(3, "c")
	h.Insert(1, "a2")
	h.Insert(4, "d")

	var got []string
	for h.Len() > 0 {
		v, ok := h.ExtractMin()
		require.True(t, ok)
		got = append(got, v)
	}
	require.Equal(t, []string{"a", "a2", "c", "d", "e"}, got)
}

func TestTieBreakIsInsertionOrder(t *testing.T) {
	h := New[int]()
	for i := 0; i < 20; i++ {
		h.Insert(0, i)
	}
	for i := 0; i < 20; i++ {
		v, ok := h.ExtractMin()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestRandomizedAgainstSort(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	h := New[int64]()
	var keys []int64
	for i := 0; i < 500; i++ {
		k := rng.Int63n(1000)
		keys = append(keys, k)
		h.Insert(k, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, want := range keys {
		got, ok := h.ExtractMin()
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	_, ok := h.ExtractMin()
	require.False(t, ok)
}

func TestDeleteAll(t *testing.T) {
	h := New[int]()
	h.Insert(1, 1)
	h.Insert(2, 2)
	h.DeleteAll()
	require.Equal(t, 0, h.Len())
	_, ok := h.ExtractMin()
	require.False(t, ok)
}
