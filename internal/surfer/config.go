package surfer

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig reports surfer parameters out of range.
var ErrInvalidConfig = errors.New("surfer: invalid config")

// CatchTarget selects what a successful catch leads to.
type CatchTarget string

const (
	CatchSurfing CatchTarget = "surfing" // Straight to SURFING
	CatchCarried CatchTarget = "carried" // BEING_CARRIED, then a stand-up attempt
)

// Config holds the surfer's physical and control constants. Angles are radians.
type Config struct {
	Radius float64 // Collision radius, meters

	SwimSpeed        float64
	RotationStep     float64 // Yaw increment per input frame
	RotationDeadzone float64
	RotationScale    float64 // Input frames per second

	DuckDiveDepth    float64
	DuckDiveDuration float64
	DuckDiveDamping  float64 // Horizontal velocity multiplier per step while diving
	DiveSpeed        float64
	SurfaceSpeed     float64

	PushbackStrength float64 // Wave coupling while swimming near a wave
	DriftCoupling    float64 // Wave coupling elsewhere

	CarrySpeed   float64
	CarryLift    float64
	MaxCarryTime float64

	SurfLift     float64
	LateralSpeed float64 // Along-front speed at a full shoulder heading
	LeanRoll     float64 // Roll at full lean
	CarveRoll    float64 // Extra roll at full turn
	RollResponse float64
	TurnRate     float64

	WhitewashPush float64 // Multiple of local wave velocity
	WhitewashSink float64 // Fraction of wave height
	Tumble        float64 // Max roll/pitch jitter, radians per second

	Gravity     float64
	Drag        float64
	AngularDrag float64

	MaxRoll    float64
	MaxPitch   float64
	FallMargin float64

	CatchRadius        float64
	CatchTolerance     float64
	StandUpTolerance   float64
	CatchMinSpeedRatio float64 // 0 disables the speed requirement
	CatchTarget        CatchTarget
}

func deg(d float64) float64 { return d * math.Pi / 180 }

// DefaultConfig returns the standard surfer.
func DefaultConfig() Config {
	return Config{
		Radius:           0.5,
		SwimSpeed:        1.5,
		RotationStep:     deg(6.5),
		RotationDeadzone: 0.3,
		RotationScale:    10,
		DuckDiveDepth:    1,
		DuckDiveDuration: 3,
		DuckDiveDamping:  0.5,
		DiveSpeed:        2,
		SurfaceSpeed:     1,
		PushbackStrength: 5,
		DriftCoupling:    0.1,
		CarrySpeed:       5.4,
		CarryLift:        0.1,
		MaxCarryTime:     5,
		SurfLift:         0.5,
		LateralSpeed:     3,
		LeanRoll:         math.Pi / 6,
		CarveRoll:        math.Pi / 4,
		RollResponse:     3,
		TurnRate:         2,
		WhitewashPush:    2,
		WhitewashSink:    0.5,
		Tumble:           0.5,
		Gravity:          9.81,
		Drag:             0.95,
		AngularDrag:      0.9,
		MaxRoll:          math.Pi / 3,
		MaxPitch:         math.Pi / 4,
		FallMargin:       0.5,
		CatchRadius:      5,
		CatchTolerance:   deg(15),
		StandUpTolerance: deg(15),
		CatchTarget:      CatchSurfing,
	}
}

// Validate checks the config for values the physics cannot work with.
func (c Config) Validate() error {
	switch {
	case c.Radius <= 0:
		return fmt.Errorf("%w: radius %g", ErrInvalidConfig, c.Radius)
	case c.SwimSpeed <= 0:
		return fmt.Errorf("%w: swim speed %g", ErrInvalidConfig, c.SwimSpeed)
	case c.DuckDiveDuration <= 0 || c.DuckDiveDepth <= 0:
		return fmt.Errorf("%w: duck dive %gm for %gs", ErrInvalidConfig, c.DuckDiveDepth, c.DuckDiveDuration)
	case c.Drag <= 0 || c.Drag > 1 || c.AngularDrag <= 0 || c.AngularDrag > 1:
		return fmt.Errorf("%w: drag %g/%g not in (0, 1]", ErrInvalidConfig, c.Drag, c.AngularDrag)
	case c.MaxCarryTime <= 0:
		return fmt.Errorf("%w: max carry time %g", ErrInvalidConfig, c.MaxCarryTime)
	case c.MaxRoll <= 0 || c.MaxPitch <= 0:
		return fmt.Errorf("%w: wipeout limits roll %g pitch %g", ErrInvalidConfig, c.MaxRoll, c.MaxPitch)
	case c.CatchRadius <= 0:
		return fmt.Errorf("%w: catch radius %g", ErrInvalidConfig, c.CatchRadius)
	case c.CatchTolerance <= 0 || c.CatchTolerance > math.Pi || c.StandUpTolerance <= 0 || c.StandUpTolerance > math.Pi:
		return fmt.Errorf("%w: tolerances %g/%g", ErrInvalidConfig, c.CatchTolerance, c.StandUpTolerance)
	case c.CatchMinSpeedRatio < 0:
		return fmt.Errorf("%w: catch min speed ratio %g", ErrInvalidConfig, c.CatchMinSpeedRatio)
	case c.CatchTarget != CatchSurfing && c.CatchTarget != CatchCarried:
		return fmt.Errorf("%w: catch target %q", ErrInvalidConfig, c.CatchTarget)
	}
	return nil
}
