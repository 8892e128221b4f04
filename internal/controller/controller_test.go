package controller

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/surf-world/internal/engine"
	"github.com/talgya/surf-world/internal/env"
	"github.com/talgya/surf-world/internal/ocean"
	"github.com/talgya/surf-world/internal/surfer"
	"github.com/talgya/surf-world/internal/waves"
)

var tol = 15 * math.Pi / 180

// swimmingObs is a swimming surfer facing yaw with no wave in sight.
func swimmingObs(yaw float64) env.Observation {
	o := make(env.Observation, env.ObsLen)
	o[surfer.VecYaw] = yaw
	o[surfer.VecSwimming] = 1
	o[env.ObsWaveDistance] = 100
	o[env.ObsHeadingError] = math.Pi
	return o
}

func TestRandomIsSeededAndBounded(t *testing.T) {
	a, b := NewRandom(3), NewRandom(3)
	for i := 0; i < 50; i++ {
		x, y := a.Act(nil), b.Act(nil)
		require.Len(t, x, env.ActionLen)
		assert.Equal(t, x, y)
		for _, v := range x {
			assert.True(t, v >= -1 && v <= 1)
		}
	}

	a.StartEpisode(9)
	first := a.Act(nil)
	a.StartEpisode(9)
	assert.Equal(t, first, a.Act(nil))
}

func TestHeuristicByMode(t *testing.T) {
	h := NewHeuristic(math.Pi/2, tol)

	ww := swimmingObs(0)
	ww[surfer.VecSwimming], ww[surfer.VecWhitewash] = 0, 1
	assert.Equal(t, env.Action{DuckDive: true}, h.Decide(ww))

	surf := swimmingObs(0)
	surf[surfer.VecSwimming], surf[surfer.VecSurfing] = 0, 1
	assert.Equal(t, env.Action{}, h.Decide(surf))

	carried := swimmingObs(0)
	carried[surfer.VecSwimming], carried[surfer.VecCarried] = 0, 1
	assert.False(t, h.Decide(carried).StandUp)
	carried[env.ObsCanStandUp] = 1
	assert.True(t, h.Decide(carried).StandUp)
}

func TestHeuristicPaddlesOut(t *testing.T) {
	h := NewHeuristic(math.Pi/2, tol)

	a := h.Decide(swimmingObs(math.Pi / 2))
	assert.Equal(t, 1.0, a.SwimY)
	assert.Zero(t, a.Rotate)

	// Facing the beach: keep paddling while turning around.
	a = h.Decide(swimmingObs(-math.Pi/2 + 0.1))
	assert.Equal(t, 1.0, a.SwimY)
	assert.Equal(t, 1.0, a.Rotate)

	a = h.Decide(swimmingObs(math.Pi/2 + 0.5))
	assert.Equal(t, -1.0, a.Rotate)
}

func TestHeuristicLinesUpAndDives(t *testing.T) {
	h := NewHeuristic(math.Pi/2, tol)
	w := waves.Wave{Angle: -math.Pi / 2}
	opt := w.OptimalHeadings()

	o := swimmingObs(math.Pi / 2)
	o[env.ObsInWaveZone] = 1
	o[env.ObsWaveDistance] = 8
	o[env.ObsWaveAngle] = w.Angle
	o[env.ObsHeadingError] = w.HeadingError(math.Pi / 2)

	// Straight out to sea, both shoulders are 45° away; turn toward one.
	a := h.Decide(o)
	assert.NotZero(t, a.Rotate)
	assert.False(t, a.DuckDive)

	// Already lined up: hold.
	o[surfer.VecYaw] = opt[1]
	o[env.ObsHeadingError] = 0
	assert.Equal(t, env.Action{}, h.Decide(o))

	// Too close to line up: go under.
	o[surfer.VecYaw] = math.Pi / 2
	o[env.ObsHeadingError] = w.HeadingError(math.Pi / 2)
	o[env.ObsWaveDistance] = 1
	assert.True(t, h.Decide(o).DuckDive)

	// No angle block: wait facing out.
	short := o[:env.ObsLenNoAngle]
	assert.Equal(t, env.Action{}, h.Decide(short))
}

func TestHeuristicPlaysFullEpisodes(t *testing.T) {
	d, err := ocean.Generate(ocean.DefaultGenConfig())
	require.NoError(t, err)
	cfg := env.DefaultConfig()
	cfg.MaxEpisodeSteps = 1500
	e, err := env.New(d, cfg)
	require.NoError(t, err)

	h := NewHeuristic(e.SeawardHeading(), cfg.Surfer.CatchTolerance)
	eng := engine.NewEngine(e, h)
	eng.Seed = 21

	var sums []env.Summary
	eng.OnEpisode = func(s env.Summary, _ []env.Event) { sums = append(sums, s) }
	require.NoError(t, eng.Run(context.Background(), 2))

	require.Len(t, sums, 2)
	for _, s := range sums {
		assert.True(t, s.Done())
		assert.Greater(t, s.MaxShoreDistance, 0.0)
	}
}
