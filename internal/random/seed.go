// Package random provides seed generation and the seeded pseudo-random
// source used by expansion.
//
// A fixed seed always yields the same sequence of draws. Randomized seeds
// come from crypto/rand.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// SeedMode selects where an expansion's seed comes from.
type SeedMode string

const (
	// SeedFixed uses the caller's seed verbatim.
	SeedFixed SeedMode = "fixed"
	// SeedRandomize ignores the caller's seed and draws a fresh one.
	SeedRandomize SeedMode = "randomize"
)

// ParseSeedMode validates a seed mode name.
func ParseSeedMode(s string) (SeedMode, error) {
	switch SeedMode(s) {
	case SeedFixed, SeedRandomize:
		return SeedMode(s), nil
	}
	return "", fmt.Errorf("unknown seed mode %q (want %q or %q)", s, SeedFixed, SeedRandomize)
}

// NewSeed generates a random 64-bit seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Resolve returns the seed to use for mode.
func Resolve(mode SeedMode, seed uint64) (uint64, error) {
	if mode == SeedRandomize {
		return NewSeed()
	}
	return seed, nil
}

// pcgStream separates the PCG stream from the state so that nearby seeds do
// not produce correlated sequences.
const pcgStream = 0x9e3779b97f4a7c15

// NewSource returns a deterministic source for seed.
func NewSource(seed uint64) *Source {
	return &Source{rng: rand.New(rand.NewPCG(seed, seed^pcgStream))}
}

// Source is a seeded random source. It is not safe for concurrent use; one
// expansion call owns one Source.
type Source struct {
	rng *rand.Rand
}

// IntN returns a uniform int in [0, n). It panics if n <= 0.
func (s *Source) IntN(n int) int {
	return s.rng.IntN(n)
}

// Choice returns a uniformly chosen element of items, which must be
// non-empty.
func Choice[T any](s *Source, items []T) T {
	return items[s.IntN(len(items))]
}
