// Package engine provides the step loop that drives an environment with a
// controller, episode after episode.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/surf-world/internal/env"
)

// Controller decides the next action from an observation.
type Controller interface {
	Act(obs env.Observation) []float64
}

// EpisodeStarter is implemented by controllers that keep per-episode state.
type EpisodeStarter interface {
	StartEpisode(seed int64)
}

// pausePoll is how often a paused engine checks whether it may continue.
const pausePoll = 100 * time.Millisecond

// Engine drives the environment forward.
type Engine struct {
	Env        *env.Env
	Controller Controller

	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Wall-clock time per step at speed 1; 0 = as fast as possible
	Seed     int64         // Base seed, episode n uses Seed+n; 0 = env seed source

	Episodes   uint64 // Completed episodes
	TotalSteps uint64

	// Callbacks, populated during setup.
	OnStep    func(res env.StepResult)                  // After every step
	OnEpisode func(sum env.Summary, events []env.Event) // After every finished episode
}

// NewEngine creates an engine that runs flat out at speed 1.
func NewEngine(e *env.Env, c Controller) *Engine {
	return &Engine{
		Env:        e,
		Controller: c,
		Speed:      1.0,
	}
}

// Run plays n episodes, or until ctx is done when n <= 0. Cancellation is a
// normal stop and returns nil.
func (e *Engine) Run(ctx context.Context, n int) error {
	slog.Info("engine started", "episodes", n, "speed", e.Speed, "interval", e.Interval)
	defer func() { slog.Info("engine stopped", "episodes", e.Episodes, "steps", e.TotalSteps) }()

	for i := 0; n <= 0 || i < n; i++ {
		if _, err := e.RunEpisode(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
	return nil
}

// RunEpisode resets the environment and steps it until the episode ends.
// It returns ctx's error if cancelled mid-episode; the partial episode is
// not reported to OnEpisode.
func (e *Engine) RunEpisode(ctx context.Context) (env.Summary, error) {
	var seed *int64
	if e.Seed != 0 {
		s := e.Seed + int64(e.Episodes)
		seed = &s
	}
	obs, _ := e.Env.Reset(seed)
	if st, ok := e.Controller.(EpisodeStarter); ok {
		st.StartEpisode(e.Env.Summary().Seed)
	}

	for {
		if err := ctx.Err(); err != nil {
			return e.Env.Summary(), err
		}
		if e.Speed <= 0 {
			// Paused, wait briefly and check again.
			if err := sleep(ctx, pausePoll); err != nil {
				return e.Env.Summary(), err
			}
			continue
		}

		start := time.Now()
		res, err := e.Env.Step(e.Controller.Act(obs))
		if err != nil {
			return e.Env.Summary(), fmt.Errorf("episode %s step %d: %w", e.Env.Summary().Episode, e.Env.Steps()+1, err)
		}
		e.TotalSteps++
		if e.OnStep != nil {
			e.OnStep(res)
		}
		if res.Done() {
			break
		}
		obs = res.Observation

		// Sleep for the remainder of the step interval, adjusted for speed.
		if e.Interval > 0 {
			target := time.Duration(float64(e.Interval) / e.Speed)
			if elapsed := time.Since(start); elapsed < target {
				if err := sleep(ctx, target-elapsed); err != nil {
					return e.Env.Summary(), err
				}
			}
		}
	}

	e.Episodes++
	sum := e.Env.Summary()
	slog.Info("episode finished",
		"episode", sum.Episode,
		"reason", sum.Reason,
		"steps", sum.Steps,
		"reward", fmt.Sprintf("%.2f", sum.TotalReward),
		"surf_time", fmt.Sprintf("%.2fs", sum.SurfTime),
		"catches", sum.Catches,
		"wipeouts", sum.Wipeouts,
	)
	if e.OnEpisode != nil {
		e.OnEpisode(sum, e.Env.Events())
	}
	return sum, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
