package env

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/talgya/surf-world/internal/surfer"
)

// ActionLen is the width of every action vector:
// [swim_x, swim_y, rotate, duck_dive, stand_up, lean, turn].
const ActionLen = 7

// Action indices.
const (
	ActSwimX = iota
	ActSwimY
	ActRotate
	ActDuckDive
	ActStandUp
	ActLean
	ActTurn
)

// triggerThreshold is the value above which a trigger field fires.
const triggerThreshold = 0.5

// Observation layout. The surfer block occupies [0, surfer.VectorLen).
const (
	ObsWaveHeight = surfer.VectorLen + iota
	ObsWaveVX
	ObsWaveVY
	ObsWaveDistance
	ObsWaveBreaking
	ObsObstacleDX
	ObsObstacleDY
	ObsObstacleDistance
	ObsDepth
	ObsShoreDistance
	ObsInWaveZone
	ObsHeadingError
	ObsCanStandUp
	ObsWaveAngle

	// ObsLen is the full width with the angle block.
	ObsLen
)

// ObsLenNoAngle is the width without the angle block.
const ObsLenNoAngle = ObsHeadingError

// Observation is the numeric state vector handed to the controller.
type Observation []float64

// Vec returns the observation as a gonum vector.
func (o Observation) Vec() *mat.VecDense {
	return mat.NewVecDense(len(o), append([]float64(nil), o...))
}

// Surfer returns the surfer block.
func (o Observation) Surfer() []float64 { return o[:surfer.VectorLen] }

// HasAngleBlock reports whether the angle block is present.
func (o Observation) HasAngleBlock() bool { return len(o) == ObsLen }

// Action is a decoded action vector.
type Action struct {
	SwimX, SwimY float64
	Rotate       float64
	DuckDive     bool
	StandUp      bool
	Lean, Turn   float64
}

// DecodeAction validates the width and clamps every field to [-1, 1].
// NaN fields read as 0.
func DecodeAction(a []float64) (Action, error) {
	if len(a) != ActionLen {
		return Action{}, fmt.Errorf("%w: got %d, want %d", ErrActionWidth, len(a), ActionLen)
	}
	c := make([]float64, ActionLen)
	for i, v := range a {
		switch {
		case math.IsNaN(v):
			c[i] = 0
		case v > 1:
			c[i] = 1
		case v < -1:
			c[i] = -1
		default:
			c[i] = v
		}
	}
	return Action{
		SwimX:    c[ActSwimX],
		SwimY:    c[ActSwimY],
		Rotate:   c[ActRotate],
		DuckDive: c[ActDuckDive] > triggerThreshold,
		StandUp:  c[ActStandUp] > triggerThreshold,
		Lean:     c[ActLean],
		Turn:     c[ActTurn],
	}, nil
}

// Encode packs the action back into a vector.
func (a Action) Encode() []float64 {
	v := make([]float64, ActionLen)
	v[ActSwimX] = a.SwimX
	v[ActSwimY] = a.SwimY
	v[ActRotate] = a.Rotate
	if a.DuckDive {
		v[ActDuckDive] = 1
	}
	if a.StandUp {
		v[ActStandUp] = 1
	}
	v[ActLean] = a.Lean
	v[ActTurn] = a.Turn
	return v
}
