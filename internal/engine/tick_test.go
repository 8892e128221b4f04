package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/surf-world/internal/env"
	"github.com/talgya/surf-world/internal/ocean"
)

type idleController struct {
	acts   int
	starts []int64
}

func (c *idleController) Act(env.Observation) []float64 {
	c.acts++
	return make([]float64, env.ActionLen)
}

func (c *idleController) StartEpisode(seed int64) { c.starts = append(c.starts, seed) }

type badController struct{}

func (badController) Act(env.Observation) []float64 { return []float64{0} }

func newTestEnv(t *testing.T, steps int) *env.Env {
	t.Helper()
	d, err := ocean.Generate(ocean.DefaultGenConfig())
	require.NoError(t, err)
	cfg := env.DefaultConfig()
	cfg.MaxEpisodeSteps = steps
	cfg.Obstacles.Count = 0
	e, err := env.New(d, cfg)
	require.NoError(t, err)
	return e
}

func TestRunEpisodeStepsUntilTruncated(t *testing.T) {
	ctrl := &idleController{}
	eng := NewEngine(newTestEnv(t, 20), ctrl)

	var steps, episodes int
	eng.OnStep = func(env.StepResult) { steps++ }
	eng.OnEpisode = func(sum env.Summary, events []env.Event) {
		episodes++
		assert.Equal(t, env.EventTruncated, sum.Reason)
		require.NotEmpty(t, events)
		assert.Equal(t, env.EventTruncated, events[len(events)-1].Kind)
	}

	sum, err := eng.RunEpisode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, sum.Steps)
	assert.Equal(t, 20, steps)
	assert.Equal(t, 20, ctrl.acts)
	assert.Equal(t, 1, episodes)
	assert.Equal(t, uint64(1), eng.Episodes)
	assert.Equal(t, uint64(20), eng.TotalSteps)
}

func TestRunUsesConsecutiveSeeds(t *testing.T) {
	ctrl := &idleController{}
	eng := NewEngine(newTestEnv(t, 5), ctrl)
	eng.Seed = 100

	var seeds []int64
	eng.OnEpisode = func(sum env.Summary, _ []env.Event) { seeds = append(seeds, sum.Seed) }

	require.NoError(t, eng.Run(context.Background(), 3))
	assert.Equal(t, []int64{100, 101, 102}, seeds)
	assert.Equal(t, []int64{100, 101, 102}, ctrl.starts)
	assert.Equal(t, uint64(15), eng.TotalSteps)
}

func TestRunStopsOnCancel(t *testing.T) {
	eng := NewEngine(newTestEnv(t, 1000), &idleController{})
	ctx, cancel := context.WithCancel(context.Background())

	eng.OnStep = func(res env.StepResult) {
		if res.Info.Step == 50 {
			cancel()
		}
	}
	called := false
	eng.OnEpisode = func(env.Summary, []env.Event) { called = true }

	require.NoError(t, eng.Run(ctx, 0))
	assert.False(t, called)
	assert.Equal(t, uint64(50), eng.TotalSteps)
	assert.Zero(t, eng.Episodes)
}

func TestRunEpisodeReportsCancel(t *testing.T) {
	eng := NewEngine(newTestEnv(t, 10), &idleController{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.RunEpisode(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunPropagatesStepErrors(t *testing.T) {
	eng := NewEngine(newTestEnv(t, 10), badController{})
	err := eng.Run(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, env.ErrActionWidth))
}

func TestIntervalPacesSteps(t *testing.T) {
	eng := NewEngine(newTestEnv(t, 5), &idleController{})
	eng.Interval = 10 * time.Millisecond

	start := time.Now()
	_, err := eng.RunEpisode(context.Background())
	require.NoError(t, err)
	// Four sleeps between five steps.
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestPausedEngineHonorsDeadline(t *testing.T) {
	eng := NewEngine(newTestEnv(t, 5), &idleController{})
	eng.Speed = 0
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	_, err := eng.RunEpisode(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Zero(t, eng.TotalSteps)
}
