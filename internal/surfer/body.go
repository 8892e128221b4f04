// Package surfer models the controllable surfer: kinematics, orientation and
// a closed mode state machine. The body never queries the ocean itself; the
// caller passes in the wave and depth values at the surfer's position.
package surfer

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/surf-world/internal/waves"
)

// Mode is the surfer's exclusive activity. Duck-diving is a sub-state of Swimming.
type Mode int

const (
	Swimming Mode = iota
	BeingCarried
	Surfing
	WhitewashCarry
)

func (m Mode) String() string {
	switch m {
	case Swimming:
		return "swimming"
	case BeingCarried:
		return "being_carried"
	case Surfing:
		return "surfing"
	case WhitewashCarry:
		return "whitewash_carry"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// State is the full kinematic and mode state. Z is the vertical offset from
// the still-water surface, negative when submerged.
type State struct {
	X, Y, Z                      float64
	VX, VY, VZ                   float64
	Roll, Pitch, Yaw             float64
	RollRate, PitchRate, YawRate float64

	// PushX, PushY is the wave-induced drift a swimmer carries on top of
	// its swim stroke. Zero outside plain swimming.
	PushX, PushY float64

	Mode          Mode
	DuckDiving    bool
	DuckDiveTimer float64
	CarryTimer    float64
	RequiredCarry float64  // Carry time needed before a stand-up succeeds
	Riding        waves.ID // 0 when not attached to a wave
}

// Speed is the horizontal speed.
func (s State) Speed() float64 { return math.Hypot(s.VX, s.VY) }

// Heading is the unit vector the surfer faces.
func (s State) Heading() mgl64.Vec2 { return mgl64.Vec2{math.Cos(s.Yaw), math.Sin(s.Yaw)} }

// VectorLen is the width of State.Vector.
const VectorLen = 18

// Positions within State.Vector.
const (
	VecX          = 0
	VecY          = 1
	VecYaw        = 8
	VecSwimming   = 12
	VecDuckDiving = 13
	VecCarried    = 14
	VecSurfing    = 15
	VecWhitewash  = 16
	VecCarryTimer = 17
)

// Vector flattens the state for observations: position, velocity,
// orientation, angular rates, five mode flags, carry timer.
func (s State) Vector() []float64 {
	flag := func(b bool) float64 {
		if b {
			return 1
		}
		return 0
	}
	return []float64{
		s.X, s.Y, s.Z,
		s.VX, s.VY, s.VZ,
		s.Roll, s.Pitch, s.Yaw,
		s.RollRate, s.PitchRate, s.YawRate,
		flag(s.Mode == Swimming),
		flag(s.DuckDiving),
		flag(s.Mode == BeingCarried),
		flag(s.Mode == Surfing),
		flag(s.Mode == WhitewashCarry),
		s.CarryTimer,
	}
}

// Contact carries the ocean values sampled at the surfer's position.
type Contact struct {
	WaveHeight     float64
	WaveVX, WaveVY float64
	Depth          float64
	NearWave       bool
	Ridden         *waves.Wave // Wave being carried on or surfed; nil if none or gone
}

// StandUpResult is the outcome of a stand-up attempt.
type StandUpResult int

const (
	StandUpIgnored  StandUpResult = iota // Not being carried
	StandUpOK                            // Now surfing
	StandUpTooEarly                      // Carry timer short; wiped out
	StandUpBadAngle                      // Heading outside tolerance; wiped out
)

func (r StandUpResult) String() string {
	switch r {
	case StandUpOK:
		return "ok"
	case StandUpTooEarly:
		return "too_early"
	case StandUpBadAngle:
		return "bad_angle"
	default:
		return "ignored"
	}
}

// Body is a surfer. Not safe for concurrent use.
type Body struct {
	cfg   Config
	rng   *rand.Rand
	state State
}

// New returns a body at the origin. rng drives whitewash tumbling.
func New(cfg Config, rng *rand.Rand) (*Body, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Body{cfg: cfg, rng: rng, state: State{Mode: Swimming}}, nil
}

// Reset places the surfer at rest, swimming at the surface.
func (b *Body) Reset(x, y, yaw float64) {
	b.state = State{X: x, Y: y, Yaw: waves.NormalizeAngle(yaw), Mode: Swimming}
}

// Reseed swaps the tumbling random source.
func (b *Body) Reseed(rng *rand.Rand) { b.rng = rng }

// State returns a copy of the current state.
func (b *Body) State() State { return b.state }

// SetState overwrites the full state. Used to stage scenarios.
func (b *Body) SetState(s State) {
	if s.Mode != Swimming {
		s.DuckDiving = false
	}
	b.state = s
}

// Mode returns the current mode.
func (b *Body) Mode() Mode { return b.state.Mode }

// Config returns the body's configuration.
func (b *Body) Config() Config { return b.cfg }

// ApplyRotation turns yaw one fixed increment per input frame in the input's
// direction. Works in every mode.
func (b *Body) ApplyRotation(rotate, dt float64) {
	if math.Abs(rotate) <= b.cfg.RotationDeadzone {
		return
	}
	dir := 1.0
	if rotate < 0 {
		dir = -1
	}
	b.state.Yaw = waves.NormalizeAngle(b.state.Yaw + dir*b.cfg.RotationStep*dt*b.cfg.RotationScale)
}

// ApplySwimming handles swim input in the surfer's frame (swimY forward,
// swimX right) and the duck-dive trigger. No-op unless swimming.
func (b *Body) ApplySwimming(swimX, swimY float64, duckDive bool, dt float64) {
	s := &b.state
	if s.Mode != Swimming {
		return
	}

	if s.DuckDiveTimer > 0 {
		s.DuckDiveTimer -= dt
		s.DuckDiving = true
	} else {
		s.DuckDiving = false
	}
	if duckDive && s.DuckDiveTimer <= 0 {
		s.DuckDiveTimer = b.cfg.DuckDiveDuration
		s.DuckDiving = true
	}

	if s.DuckDiving {
		s.VX *= b.cfg.DuckDiveDamping
		s.VY *= b.cfg.DuckDiveDamping
		if s.Z > -b.cfg.DuckDiveDepth {
			s.VZ = -b.cfg.DiveSpeed
		} else {
			s.VZ = 0
		}
		return
	}

	power := math.Min(1, math.Hypot(swimX, swimY))
	speed := power * b.cfg.SwimSpeed
	if power > 0 {
		// Direction only; magnitude comes from power.
		norm := math.Hypot(swimX, swimY)
		swimX, swimY = swimX/norm, swimY/norm
	}
	fwd := s.Heading()
	right := mgl64.Vec2{fwd.Y(), -fwd.X()}
	v := fwd.Mul(swimY).Add(right.Mul(swimX)).Mul(speed)
	s.VX, s.VY = v.X()+s.PushX, v.Y()+s.PushY

	if s.Z < 0 {
		s.VZ = b.cfg.SurfaceSpeed
	} else {
		s.VZ = 0
	}
}

// EscapeWhitewash duck-dives out of a whitewash carry. It is the only action
// available in that mode and does not count as a wipeout.
func (b *Body) EscapeWhitewash() bool {
	s := &b.state
	if s.Mode != WhitewashCarry {
		return false
	}
	s.Mode = Swimming
	s.DuckDiving = true
	s.DuckDiveTimer = b.cfg.DuckDiveDuration
	s.CarryTimer = 0
	s.RequiredCarry = 0
	s.Riding = 0
	s.Roll, s.Pitch = 0, 0
	return true
}

// CanCatch reports whether the catch condition holds against w at distance dist.
func (b *Body) CanCatch(w waves.Wave, dist float64) bool {
	s := b.state
	if s.Mode != Swimming || s.DuckDiving {
		return false
	}
	if !w.Rideable() || dist >= b.cfg.CatchRadius {
		return false
	}
	if w.HeadingError(s.Yaw) > b.cfg.CatchTolerance {
		return false
	}
	if b.cfg.CatchMinSpeedRatio > 0 && s.Speed() < w.Speed*b.cfg.CatchMinSpeedRatio {
		return false
	}
	return true
}

// TryCatch attempts to catch w. On success the surfer attaches to the wave
// and enters SURFING or BEING_CARRIED according to the configured target.
func (b *Body) TryCatch(w waves.Wave, dist float64) bool {
	if !b.CanCatch(w, dist) {
		return false
	}
	s := &b.state
	s.Riding = w.ID
	s.CarryTimer = 0
	s.Roll, s.Pitch = 0, 0
	if b.cfg.CatchTarget == CatchCarried {
		s.Mode = BeingCarried
		s.RequiredCarry = w.CarryDuration
	} else {
		s.Mode = Surfing
	}
	return true
}

// TryStandUp attempts to get up while being carried. headingErr is the
// angular distance from the nearest optimal heading. Failure wipes out.
func (b *Body) TryStandUp(headingErr float64) StandUpResult {
	s := &b.state
	if s.Mode != BeingCarried {
		return StandUpIgnored
	}
	if s.CarryTimer < s.RequiredCarry {
		b.startWhitewash()
		return StandUpTooEarly
	}
	if headingErr > b.cfg.StandUpTolerance {
		b.startWhitewash()
		return StandUpBadAngle
	}
	s.Mode = Surfing
	return StandUpOK
}

// CanStandUp reports whether a stand-up attempt would succeed right now.
func (b *Body) CanStandUp(headingErr float64) bool {
	s := b.state
	return s.Mode == BeingCarried && s.CarryTimer >= s.RequiredCarry && headingErr <= b.cfg.StandUpTolerance
}

// ApplySurfing drives roll toward the lean/carve target and turns yaw. No-op unless surfing.
func (b *Body) ApplySurfing(lean, turn, dt float64) {
	s := &b.state
	if s.Mode != Surfing {
		return
	}
	target := lean*b.cfg.LeanRoll + turn*b.cfg.CarveRoll
	s.Roll += (target - s.Roll) * dt * b.cfg.RollResponse
	s.Yaw = waves.NormalizeAngle(s.Yaw + turn*dt*b.cfg.TurnRate)
}

// KickOut leaves the ridden wave and returns to swimming. Returns false if
// the surfer was not attached to a wave.
func (b *Body) KickOut() bool {
	s := &b.state
	if s.Mode != Surfing && s.Mode != BeingCarried {
		return false
	}
	s.Mode = Swimming
	s.Riding = 0
	s.CarryTimer = 0
	return true
}

// UpdatePhysics integrates one step: position from velocity, mode-specific
// coupling to the sampled ocean, gravity, the surface constraint and drag.
func (b *Body) UpdatePhysics(c Contact, dt float64) {
	s := &b.state
	s.X += s.VX * dt
	s.Y += s.VY * dt
	s.Z += s.VZ * dt

	switch s.Mode {
	case Swimming:
		if s.DuckDiving {
			s.PushX, s.PushY = 0, 0
			break
		}
		k := b.cfg.DriftCoupling
		if c.NearWave {
			k = b.cfg.PushbackStrength
		}
		px, py := c.WaveVX*dt*k, c.WaveVY*dt*k
		s.PushX += px
		s.PushY += py
		s.VX += px
		s.VY += py
		s.Z = c.WaveHeight

	case BeingCarried:
		s.CarryTimer += dt
		if s.CarryTimer >= b.cfg.MaxCarryTime {
			b.KickOut()
			break
		}
		v := s.Heading().Mul(b.cfg.CarrySpeed)
		s.VX, s.VY = v.X(), v.Y()
		s.Z = c.WaveHeight + b.cfg.CarryLift

	case Surfing:
		s.Z = c.WaveHeight + b.cfg.SurfLift
		if c.Ridden == nil || c.Ridden.Phase == waves.Whitewash {
			b.KickOut()
			break
		}
		axis := c.Ridden.Axis()
		lateral := axis.Dot(s.Heading()) * b.cfg.LateralSpeed
		v := c.Ridden.Direction().Mul(c.Ridden.Speed).Add(axis.Mul(lateral))
		s.VX, s.VY = v.X(), v.Y()

	case WhitewashCarry:
		s.Z = c.WaveHeight * b.cfg.WhitewashSink
		s.VX = c.WaveVX * b.cfg.WhitewashPush
		s.VY = c.WaveVY * b.cfg.WhitewashPush
		s.Roll += (b.rng.Float64()*2 - 1) * b.cfg.Tumble * dt
		s.Pitch += (b.rng.Float64()*2 - 1) * b.cfg.Tumble * dt
	}

	s.VZ -= b.cfg.Gravity * dt
	if s.Z < 0 && !s.DuckDiving {
		s.Z = 0
		s.VZ = 0
	}

	if s.Mode != Swimming {
		s.PushX, s.PushY = 0, 0
	}
	s.PushX *= b.cfg.Drag
	s.PushY *= b.cfg.Drag
	s.VX *= b.cfg.Drag
	s.VY *= b.cfg.Drag
	s.VZ *= b.cfg.Drag
	s.RollRate *= b.cfg.AngularDrag
	s.PitchRate *= b.cfg.AngularDrag
	s.YawRate *= b.cfg.AngularDrag
}

// CheckWipeout evaluates the wipeout conditions while surfing or being
// carried, given the wave height at the surfer. A wipeout switches to
// WHITEWASH_CARRY and returns true.
func (b *Body) CheckWipeout(waveHeight float64) bool {
	s := &b.state
	if s.Mode != Surfing && s.Mode != BeingCarried {
		return false
	}
	if math.Abs(s.Roll) > b.cfg.MaxRoll || math.Abs(s.Pitch) > b.cfg.MaxPitch {
		b.startWhitewash()
		return true
	}
	if s.Mode == Surfing && s.Z < waveHeight-b.cfg.FallMargin {
		b.startWhitewash()
		return true
	}
	return false
}

func (b *Body) startWhitewash() {
	s := &b.state
	s.Mode = WhitewashCarry
	s.DuckDiving = false
	s.DuckDiveTimer = 0
	s.CarryTimer = 0
	s.RequiredCarry = 0
	s.Riding = 0
}
