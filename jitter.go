package sagaflow

import "math/rand/v2"

// Sampler draws a uniform value in [0, 1). It exists so retry jitter is a
// substitutable collaborator: per spec §9, implementations must not rely on
// an unseeded or time-seeded PRNG inside tests.
type Sampler interface {
	Float64() float64
}

// defaultSampler uses math/rand/v2's global source, which is seeded
// automatically (no caller-visible seeding step, unlike math/rand's
// top-level functions pre-Go1.20).
type defaultSampler struct{}

func (defaultSampler) Float64() float64 {
	return rand.Float64()
}

// FixedSampler always returns the same value; useful in tests that need
// deterministic jitter (e.g. 0 to disable jitter entirely, or 0.5 to land on
// the midpoint of the jitter window).
type FixedSampler float64

func (f FixedSampler) Float64() float64 {
	return float64(f)
}
