// Package controller holds baseline surfers that play the environment
// without learning. Every step they read the observation, decide by mode
// and return one action vector.
package controller

import (
	"math"

	"github.com/talgya/surf-world/internal/env"
	"github.com/talgya/surf-world/internal/surfer"
	"github.com/talgya/surf-world/internal/waves"
)

// Heuristic paddles out to the wave zone, lines up with approaching waves,
// dives under the ones it cannot catch and rides the rest straight.
type Heuristic struct {
	Seaward    float64 // Yaw pointing away from the beach
	Tolerance  float64 // Heading error that counts as lined up, radians
	LineUpDist float64 // Start turning for a wave closer than this
	DiveDist   float64 // Duck-dive under an unrideable wave closer than this
}

// NewHeuristic returns a controller for an environment whose seaward yaw
// is seaward and whose catch tolerance is tol.
func NewHeuristic(seaward, tol float64) *Heuristic {
	return &Heuristic{
		Seaward:    seaward,
		Tolerance:  tol,
		LineUpDist: 15,
		DiveDist:   3,
	}
}

// Act implements engine.Controller.
func (h *Heuristic) Act(obs env.Observation) []float64 {
	return h.Decide(obs).Encode()
}

// Decide picks an action, routing by the surfer's mode.
func (h *Heuristic) Decide(obs env.Observation) env.Action {
	s := obs.Surfer()
	switch {
	case s[surfer.VecWhitewash] == 1:
		// The only way out is under.
		return env.Action{DuckDive: true}
	case s[surfer.VecSurfing] == 1:
		return env.Action{}
	case s[surfer.VecCarried] == 1:
		return decideCarried(obs)
	default:
		return h.decideSwimming(obs)
	}
}

func decideCarried(obs env.Observation) env.Action {
	if obs.HasAngleBlock() && obs[env.ObsCanStandUp] == 1 {
		return env.Action{StandUp: true}
	}
	return env.Action{}
}

func (h *Heuristic) decideSwimming(obs env.Observation) env.Action {
	s := obs.Surfer()
	yaw := s[surfer.VecYaw]

	if s[surfer.VecDuckDiving] == 1 {
		return env.Action{}
	}

	// Out past the break: face seaward and paddle.
	if obs[env.ObsInWaveZone] == 0 {
		return env.Action{SwimY: 1, Rotate: h.turnToward(yaw, h.Seaward)}
	}

	dist := obs[env.ObsWaveDistance]
	if !obs.HasAngleBlock() || dist >= h.LineUpDist {
		// Waiting in the line-up, pointed out to sea.
		return env.Action{Rotate: h.turnToward(yaw, h.Seaward)}
	}

	herr := obs[env.ObsHeadingError]
	if dist < h.DiveDist && herr > h.Tolerance {
		return env.Action{DuckDive: true}
	}

	w := waves.Wave{Angle: obs[env.ObsWaveAngle]}
	return env.Action{Rotate: h.turnToward(yaw, w.NearestHeading(yaw))}
}

// turnToward returns a full rotate input toward target, or 0 once within
// half the tolerance.
func (h *Heuristic) turnToward(yaw, target float64) float64 {
	d := waves.AngleDelta(yaw, target)
	if math.Abs(d) <= h.Tolerance/2 {
		return 0
	}
	return math.Copysign(1, d)
}
