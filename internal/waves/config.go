package waves

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidConfig reports wave parameters that cannot produce a working field.
var ErrInvalidConfig = errors.New("waves: invalid config")

// Span is a duration interpolated by wave size: Small for the smallest wave
// the field can spawn, Large for the biggest.
type Span struct {
	Small float64 `yaml:"small"`
	Large float64 `yaml:"large"`
}

// At interpolates the span at size fraction t in [0, 1].
func (s Span) At(t float64) float64 {
	return s.Small + (s.Large-s.Small)*t
}

// Config controls wave spawning and lifecycle.
type Config struct {
	Period          float64 // Seconds between spawns
	BaseHeight      float64 // Meters
	MinHeightFactor float64 // Spawn height range as multiples of BaseHeight
	MaxHeightFactor float64

	BreakingDepthRatio float64 // FRONT breaks when height > depth × ratio
	BreakHeightFactor  float64 // Height multiplier applied on breaking
	WhitewashDecay     float64 // Per-step height and speed multiplier in WHITEWASH
	RemovalHeight      float64 // Whitewash below this height is retired

	StraightWaves bool    // Disable approach angle variation
	MaxAngle      float64 // Max approach angle perturbation, radians

	FrontLengthRatio   float64 // Front length as a fraction of domain width
	InfluenceThickness float64 // Falloff distance for height/velocity queries

	WaveZoneMin float64 // Depth band considered the wave zone
	WaveZoneMax float64

	SpawnRatio        float64 // Spawn distance from the beach as a fraction of domain length
	SmallSpawnRatio   float64 // Same, for small domains
	SpeedPerPeriod    float64 // Wave speed = SpeedPerPeriod × Period
	SmallSpeedScale   float64 // Speed multiplier for small domains
	SmallDomainLength float64 // Domains shorter than this are small

	BuildingTime  Span
	FrontTime     Span
	WhitewashTime Span
	CarryTime     Span // Stand-up carry requirement

	RefractionDepth float64 // Waves refract in water shallower than this
	RefractionRate  float64 // Max heading change, radians per second

	PierRadius float64
	Piers      []mgl64.Vec2
}

// DefaultConfig returns the standard wave climate.
func DefaultConfig() Config {
	return Config{
		Period:             8,
		BaseHeight:         1.5,
		MinHeightFactor:    0.5,
		MaxHeightFactor:    4,
		BreakingDepthRatio: 1.3,
		BreakHeightFactor:  0.7,
		WhitewashDecay:     0.97,
		RemovalHeight:      0.1,
		MaxAngle:           math.Pi / 6,
		FrontLengthRatio:   0.8,
		InfluenceThickness: 2,
		WaveZoneMin:        2,
		WaveZoneMax:        15,
		SpawnRatio:         0.85,
		SmallSpawnRatio:    0.65,
		SpeedPerPeriod:     1.56,
		SmallSpeedScale:    0.3,
		SmallDomainLength:  150,
		BuildingTime:       Span{Small: 2, Large: 5},
		FrontTime:          Span{Small: 3, Large: 8},
		WhitewashTime:      Span{Small: 4, Large: 10},
		CarryTime:          Span{Small: 0.5, Large: 2},
		RefractionDepth:    10,
		RefractionRate:     0.1,
		PierRadius:         2,
	}
}

// Validate checks that every parameter is in range.
func (c Config) Validate() error {
	switch {
	case c.Period <= 0:
		return fmt.Errorf("%w: period %g must be positive", ErrInvalidConfig, c.Period)
	case c.BaseHeight <= 0:
		return fmt.Errorf("%w: base height %g must be positive", ErrInvalidConfig, c.BaseHeight)
	case c.MinHeightFactor <= 0 || c.MaxHeightFactor < c.MinHeightFactor:
		return fmt.Errorf("%w: height factors [%g, %g]", ErrInvalidConfig, c.MinHeightFactor, c.MaxHeightFactor)
	case c.BreakingDepthRatio <= 0:
		return fmt.Errorf("%w: breaking depth ratio %g", ErrInvalidConfig, c.BreakingDepthRatio)
	case c.BreakHeightFactor <= 0 || c.BreakHeightFactor > 1:
		return fmt.Errorf("%w: break height factor %g not in (0, 1]", ErrInvalidConfig, c.BreakHeightFactor)
	case c.WhitewashDecay <= 0 || c.WhitewashDecay >= 1:
		return fmt.Errorf("%w: whitewash decay %g not in (0, 1)", ErrInvalidConfig, c.WhitewashDecay)
	case c.RemovalHeight <= 0:
		return fmt.Errorf("%w: removal height %g must be positive", ErrInvalidConfig, c.RemovalHeight)
	case c.MaxAngle < 0 || c.MaxAngle >= math.Pi/2:
		return fmt.Errorf("%w: max angle %g not in [0, π/2)", ErrInvalidConfig, c.MaxAngle)
	case c.FrontLengthRatio <= 0:
		return fmt.Errorf("%w: front length ratio %g", ErrInvalidConfig, c.FrontLengthRatio)
	case c.InfluenceThickness <= 0:
		return fmt.Errorf("%w: influence thickness %g", ErrInvalidConfig, c.InfluenceThickness)
	case c.WaveZoneMax <= c.WaveZoneMin:
		return fmt.Errorf("%w: wave zone [%g, %g]", ErrInvalidConfig, c.WaveZoneMin, c.WaveZoneMax)
	case c.SpawnRatio <= 0 || c.SpawnRatio > 1 || c.SmallSpawnRatio <= 0 || c.SmallSpawnRatio > 1:
		return fmt.Errorf("%w: spawn ratios %g/%g not in (0, 1]", ErrInvalidConfig, c.SpawnRatio, c.SmallSpawnRatio)
	case c.SpeedPerPeriod <= 0 || c.SmallSpeedScale <= 0:
		return fmt.Errorf("%w: speed %g×%g", ErrInvalidConfig, c.SpeedPerPeriod, c.SmallSpeedScale)
	}
	for name, s := range map[string]Span{"building": c.BuildingTime, "front": c.FrontTime, "whitewash": c.WhitewashTime, "carry": c.CarryTime} {
		if s.Small <= 0 || s.Large < s.Small {
			return fmt.Errorf("%w: %s duration [%g, %g]", ErrInvalidConfig, name, s.Small, s.Large)
		}
	}
	return nil
}
