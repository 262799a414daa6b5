package recommender

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomPicker_Pick(t *testing.T) {
	t.Run("empty store is NoDataError", func(t *testing.T) {
		picker := NewRandomPicker(&fakeQuotes{}, rand.New(rand.NewSource(1)))
		_, err := picker.Pick(context.Background())
		assert.Error(t, err)
		assert.True(t, IsNoData(err))
	})

	t.Run("single quote always returned", func(t *testing.T) {
		picker := NewRandomPicker(&fakeQuotes{quotes: someQuotes(1)}, rand.New(rand.NewSource(1)))
		for i := 0; i < 20; i++ {
			quote, err := picker.Pick(context.Background())
			require.NoError(t, err)
			assert.Equal(t, int64(1), quote.ID)
		}
	})

	t.Run("draws stay in range", func(t *testing.T) {
		picker := NewRandomPicker(&fakeQuotes{quotes: someQuotes(5)}, rand.New(rand.NewSource(42)))

		seen := make(map[int64]bool)
		for i := 0; i < 200; i++ {
			quote, err := picker.Pick(context.Background())
			require.NoError(t, err)
			assert.GreaterOrEqual(t, quote.ID, int64(1))
			assert.LessOrEqual(t, quote.ID, int64(5))
			seen[quote.ID] = true
		}
		// Uniform draws over 200 tries should touch every record.
		assert.Len(t, seen, 5)
	})
}

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, CacheKey(ModeComfort, "hello"), CacheKey(ModeComfort, "hello"))
	})

	t.Run("mode changes the key", func(t *testing.T) {
		assert.NotEqual(t, CacheKey(ModeComfort, "hello"), CacheKey(ModeHarsh, "hello"))
	})

	t.Run("text changes the key", func(t *testing.T) {
		assert.NotEqual(t, CacheKey(ModeComfort, "hello"), CacheKey(ModeComfort, "goodbye"))
	})

	t.Run("hex encoded sha256", func(t *testing.T) {
		assert.Len(t, CacheKey(ModeRandom, randomPlaceholder), 64)
	})
}
