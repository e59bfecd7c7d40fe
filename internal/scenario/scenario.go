// Package scenario draws the randomized, read-only inputs a game session
// needs before play starts.
package scenario

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
)

var ErrPoolTooSmall = errors.New("scenario pool smaller than requested sample")

// Source is the randomness provider for every draw a game makes.
type Source interface {
	// Intn returns a value in [0, n). n must be > 0.
	Intn(n int) int
	// Float64 returns a value in [0, 1).
	Float64() float64
}

type pcgSource struct {
	r *rand.Rand
}

func (p *pcgSource) Intn(n int) int {
	if n <= 0 {
		panic("scenario: Intn called with n <= 0")
	}
	return p.r.IntN(n)
}

func (p *pcgSource) Float64() float64 { return p.r.Float64() }

// NewSource returns a Source seeded from crypto/rand. It is not safe for
// concurrent use; each session owns its own.
func NewSource() Source {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("scenario: crypto/rand failure: " + err.Error())
	}
	return &pcgSource{r: rand.New(rand.NewPCG(binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:])))}
}

// NewSeeded returns a reproducible Source.
func NewSeeded(seed uint64) Source {
	return &pcgSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// IntRange returns a uniform int in [lo, hi].
func IntRange(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}

// Step returns a uniform value from lo, lo+step, ... not exceeding hi.
func Step(src Source, lo, hi, step int) int {
	if step <= 0 || hi <= lo {
		return lo
	}
	return lo + step*src.Intn((hi-lo)/step+1)
}

// FloatRange returns a uniform float in [lo, hi].
func FloatRange(src Source, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + (hi-lo)*src.Float64()
}

// Shuffle returns a permuted copy of items.
func Shuffle[T any](src Source, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Sample draws n distinct elements of pool without replacement.
func Sample[T any](src Source, pool []T, n int) ([]T, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative sample size %d", n)
	}
	if n > len(pool) {
		return nil, fmt.Errorf("need %d from pool of %d: %w", n, len(pool), ErrPoolTooSmall)
	}
	return Shuffle(src, pool)[:n], nil
}

// Pick returns one uniformly chosen element. pool must not be empty.
func Pick[T any](src Source, pool []T) T {
	return pool[src.Intn(len(pool))]
}
