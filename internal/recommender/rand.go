package recommender

import (
	"math/rand"
	"sync"
)

// RandSource is the randomness surface the sampler and random picker
// draw from. *rand.Rand satisfies it directly for deterministic
// single-goroutine tests.
type RandSource interface {
	Float64() float64
	Int63n(n int64) int64
}

// lockedRand serializes draws from a rand source. math/rand sources
// are not safe for concurrent use, and one Recommender serves many
// requests at once.
type lockedRand struct {
	mu  sync.Mutex
	src *rand.Rand
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float64()
}

func (r *lockedRand) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Int63n(n)
}
