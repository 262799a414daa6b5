package recommender

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sejinbae/moodquote/internal/db"
)

// cachedQueryText is stored in place of the placeholder text so random
// cache rows are recognizable.
const cachedRandomText = "[RANDOM]"

// CacheStore is the persistence surface for cached recommendations.
type CacheStore interface {
	GetCachedQuote(ctx context.Context, queryHash string) (*db.CachedQuote, error)
	UpsertCachedQuote(ctx context.Context, c *db.CachedQuote) error
}

// CacheKey derives the deterministic cache key for a (mode, text) pair.
func CacheKey(mode Mode, text string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s", mode, text)))
	return hex.EncodeToString(sum[:])
}

// cacheLookup returns a fresh cached row or nil. Errors and stale
// entries both read as misses; the cache is an optimization only.
func cacheLookup(ctx context.Context, store CacheStore, key string, ttl time.Duration, now time.Time) *db.CachedQuote {
	cached, err := store.GetCachedQuote(ctx, key)
	if err != nil || cached == nil {
		return nil
	}
	if now.Sub(cached.CreatedAt) >= ttl {
		return nil
	}
	return cached
}
