package chamber

import (
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler is the source of randomness for decay times and splitting.
type Sampler interface {
	// Exp draws a non-negative value from an exponential distribution with the given rate.
	Exp(rate float64) float64
	// UniformInt draws an integer uniformly from [0, n], inclusive.
	UniformInt(n int) int
}

// RandSampler is a Sampler backed by a seeded PCG source. Decay times come
// from gonum's exponential distribution over the same source, so one seed
// reproduces a whole run.
type RandSampler struct {
	src rand.Source
	rng *rand.Rand
}

// NewRandSampler creates a sampler seeded with seed. A zero seed uses the current time.
func NewRandSampler(seed int64) *RandSampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	src := rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
	return &RandSampler{src: src, rng: rand.New(src)}
}

// Exp implements Sampler.
func (s *RandSampler) Exp(rate float64) float64 {
	return distuv.Exponential{Rate: rate, Src: s.src}.Rand()
}

// UniformInt implements Sampler.
func (s *RandSampler) UniformInt(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rng.IntN(n + 1)
}
