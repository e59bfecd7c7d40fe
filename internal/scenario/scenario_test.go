package scenario

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSampleDistinct(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		size := rapid.IntRange(0, 40).Draw(rt, "size")
		pool := make([]int, size)
		for i := range pool {
			pool[i] = i * 3
		}
		n := rapid.IntRange(0, size).Draw(rt, "n")
		src := NewSeeded(rapid.Uint64().Draw(rt, "seed"))

		got, err := Sample(src, pool, n)
		require.NoError(rt, err)
		require.Len(rt, got, n)

		seen := make(map[int]bool, n)
		for _, v := range got {
			assert.False(rt, seen[v], "duplicate %d in sample", v)
			assert.Zero(rt, v%3, "value %d not from pool", v)
			seen[v] = true
		}
	})
}

func TestSampleUnderflow(t *testing.T) {
	_, err := Sample(NewSeeded(1), []string{"a", "b"}, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPoolTooSmall))

	_, err = Sample(NewSeeded(1), []string{"a"}, -1)
	require.Error(t, err)
}

func TestSampleDoesNotMutatePool(t *testing.T) {
	pool := []int{1, 2, 3, 4, 5}
	_, err := Sample(NewSeeded(7), pool, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, pool)
}

func TestRanges(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		src := NewSeeded(rapid.Uint64().Draw(rt, "seed"))
		lo := rapid.IntRange(-1000, 1000).Draw(rt, "lo")
		hi := lo + rapid.IntRange(0, 5000).Draw(rt, "span")

		v := IntRange(src, lo, hi)
		assert.GreaterOrEqual(rt, v, lo)
		assert.LessOrEqual(rt, v, hi)

		s := Step(src, lo, hi, 50)
		assert.GreaterOrEqual(rt, s, lo)
		assert.LessOrEqual(rt, s, hi)
		assert.Zero(rt, (s-lo)%50)

		f := FloatRange(src, float64(lo), float64(hi))
		assert.GreaterOrEqual(rt, f, float64(lo))
		assert.LessOrEqual(rt, f, float64(hi))
	})
}

func TestDegenerateRanges(t *testing.T) {
	src := NewSeeded(3)
	assert.Equal(t, 5, IntRange(src, 5, 5))
	assert.Equal(t, 5, Step(src, 5, 5, 50))
	assert.Equal(t, 0.0, FloatRange(src, 0, 0))
}

func TestSeededIsReproducible(t *testing.T) {
	a, b := NewSeeded(42), NewSeeded(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
}
