package providers

import (
	"math/rand"
	"sync"
	"time"
)

// SeededRandom is a lockable math/rand source. A zero seed falls back to
// the wall clock; a fixed seed makes every synthetic value reproducible.
type SeededRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededRandom constructs a randomness source from a seed.
func NewSeededRandom(seed int64) *SeededRandom {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SeededRandom{rng: rand.New(rand.NewSource(seed))}
}

// Float returns a uniform value in [lo, hi).
func (r *SeededRandom) Float(lo, hi float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo + r.rng.Float64()*(hi-lo)
}
