package controller

import (
	"math/rand"

	"github.com/talgya/surf-world/internal/env"
)

// Random draws every action component uniformly from [-1, 1].
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a random controller seeded with seed.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

// Act implements engine.Controller.
func (r *Random) Act(env.Observation) []float64 {
	a := make([]float64, env.ActionLen)
	for i := range a {
		a[i] = r.rng.Float64()*2 - 1
	}
	return a
}

// StartEpisode reseeds from the episode seed so runs replay.
func (r *Random) StartEpisode(seed int64) {
	r.rng.Seed(seed)
}
