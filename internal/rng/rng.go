// Package rng provides seeded, named random streams.
package rng

import (
	"hash/fnv"
	"math/rand"
)

// Source implements ports.RNGPort. It holds no generator state of its own, so
// it is safe to share; each returned *rand.Rand belongs to its caller.
type Source struct{}

// NewSource creates a stream source.
func NewSource() *Source {
	return &Source{}
}

// Stream derives a generator from (name, seed).
func (s *Source) Stream(name string, seed int64) *rand.Rand {
	return rand.New(rand.NewSource(Derive(seed, name)))
}

// Derive mixes a name into a seed with FNV-1a so that named streams sharing a
// base seed do not overlap.
func Derive(seed int64, name string) int64 {
	h := fnv.New64a()
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(uint64(seed) >> (8 * i))
	}
	h.Write(b[:])
	h.Write([]byte(name))
	return int64(h.Sum64() & (1<<63 - 1))
}

// Split draws n child seeds from parent, so work can be distributed across
// goroutines while the results depend only on parent's state.
func Split(parent *rand.Rand, n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = parent.Int63()
	}
	return seeds
}
