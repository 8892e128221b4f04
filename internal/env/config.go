package env

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/surf-world/internal/obstacles"
	"github.com/talgya/surf-world/internal/surfer"
	"github.com/talgya/surf-world/internal/waves"
)

var (
	// ErrInvalidConfig reports an episode config that cannot run.
	ErrInvalidConfig = errors.New("env: invalid config")
	// ErrActionWidth reports an action vector of the wrong length.
	ErrActionWidth = errors.New("env: wrong action width")
	// ErrNotReset reports a Step before Reset or after the episode ended.
	ErrNotReset = errors.New("env: episode not running, call Reset")
)

// Rewards holds the shaped reward terms. Rates are per simulated second.
type Rewards struct {
	TimePenalty     float64 // Per step
	AngleGood       float64 // Rate while within CatchTolerance of an optimal heading
	AnglePerfect    float64 // Extra rate within PerfectAngle
	PerfectAngle    float64 // Radians
	ForwardProgress float64 // Rate × seaward swim speed
	ReachWaveZone   float64 // Once per episode
	Catch           float64 // Per catch
	Carried         float64 // Rate while being carried
	Surfing         float64 // Rate while surfing
	SurfSpeed       float64 // Rate × speed while surfing
	DuckDiveTiming  float64 // Rate while diving under a nearby wave
	DuckDive        float64 // Rate while diving
	Whitewash       float64 // Rate while in whitewash carry (negative)
	Wipeout         float64 // Per wipeout (negative)
	Collision       float64 // On obstacle contact (negative)
}

// DefaultRewards returns the standard shaping.
func DefaultRewards() Rewards {
	return Rewards{
		TimePenalty:     -0.01,
		AngleGood:       0.5,
		AnglePerfect:    1.0,
		PerfectAngle:    math.Pi / 36,
		ForwardProgress: 0.5,
		ReachWaveZone:   10,
		Catch:           50,
		Carried:         0.5,
		Surfing:         10,
		SurfSpeed:       0.1,
		DuckDiveTiming:  5,
		DuckDive:        1,
		Whitewash:       -2,
		Wipeout:         -10,
		Collision:       -20,
	}
}

// Config is everything an episode needs besides the depth field.
type Config struct {
	DT              float64
	MaxEpisodeSteps int
	AngleBlock      bool // Append the catch-angle block to observations

	NearWaveFactor float64 // Near a wave when closer than height × factor
	NoWaveDistance float64 // Distance reported when no wave is live
	ObstacleRange  float64 // Max distance for the nearest-obstacle block

	StartMinDepth   float64 // Starting spot search band
	StartMaxDepth   float64
	StartSearchStep float64
	RideReach       float64 // A ridden wave farther than this is lost

	Waves     waves.Config
	Surfer    surfer.Config
	Obstacles obstacles.Config
	Rewards   Rewards
}

// DefaultConfig returns the standard episode setup.
func DefaultConfig() Config {
	return Config{
		DT:              0.05,
		MaxEpisodeSteps: 2000,
		AngleBlock:      true,
		NearWaveFactor:  3,
		NoWaveDistance:  100,
		ObstacleRange:   10,
		StartMinDepth:   0.3,
		StartMaxDepth:   1.5,
		StartSearchStep: 0.5,
		RideReach:       6,
		Waves:           waves.DefaultConfig(),
		Surfer:          surfer.DefaultConfig(),
		Obstacles:       obstacles.DefaultConfig(),
		Rewards:         DefaultRewards(),
	}
}

// Validate checks the episode parameters and each component config.
func (c Config) Validate() error {
	switch {
	case c.DT <= 0:
		return fmt.Errorf("%w: dt %g", ErrInvalidConfig, c.DT)
	case c.MaxEpisodeSteps <= 0:
		return fmt.Errorf("%w: max episode steps %d", ErrInvalidConfig, c.MaxEpisodeSteps)
	case c.NearWaveFactor <= 0 || c.NoWaveDistance <= 0 || c.ObstacleRange <= 0:
		return fmt.Errorf("%w: near-wave factor %g, no-wave distance %g, obstacle range %g",
			ErrInvalidConfig, c.NearWaveFactor, c.NoWaveDistance, c.ObstacleRange)
	case c.StartSearchStep <= 0 || c.StartMaxDepth <= c.StartMinDepth:
		return fmt.Errorf("%w: start search step %g band [%g, %g]",
			ErrInvalidConfig, c.StartSearchStep, c.StartMinDepth, c.StartMaxDepth)
	case c.RideReach <= 0:
		return fmt.Errorf("%w: ride reach %g", ErrInvalidConfig, c.RideReach)
	}
	if err := c.Waves.Validate(); err != nil {
		return fmt.Errorf("waves: %w", err)
	}
	if err := c.Surfer.Validate(); err != nil {
		return fmt.Errorf("surfer: %w", err)
	}
	if err := c.Obstacles.Validate(); err != nil {
		return fmt.Errorf("obstacles: %w", err)
	}
	return nil
}
