// Package waves simulates traveling wave fronts over a depth field. Each wave
// builds, holds as a rideable front, breaks into whitewash, and is retired at
// the shoreline or once the foam has decayed.
package waves

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/surf-world/internal/ocean"
)

// Shore identifies which y edge of the domain is the beach.
type Shore int

const (
	ShoreSouth Shore = iota // Beach at y=0, waves travel toward -y
	ShoreNorth              // Beach at y=length, waves travel toward +y
)

func (s Shore) String() string {
	if s == ShoreNorth {
		return "north"
	}
	return "south"
}

// RetireReason says why a wave left the field.
type RetireReason int

const (
	RetiredShore   RetireReason = iota // Center crossed the shoreline
	RetiredDecayed                     // Whitewash faded out
	RetiredOffside                     // Drifted laterally out of the domain
)

func (r RetireReason) String() string {
	switch r {
	case RetiredShore:
		return "shore"
	case RetiredDecayed:
		return "decayed"
	default:
		return "offside"
	}
}

// Phase velocity strengths as fractions of wave speed.
var phaseStrength = [...]float64{
	Building:  0.1,
	Front:     0.3,
	Whitewash: 0.6,
}

// Stats counts lifecycle events since the field was built.
type Stats struct {
	Spawned        int `json:"spawned"`
	Broken         int `json:"broken"`
	RetiredShore   int `json:"retired_shore"`
	RetiredDecayed int `json:"retired_decayed"`
	RetiredOffside int `json:"retired_offside"`
}

// Field owns the live waves. It is not safe for concurrent use.
type Field struct {
	cfg   Config
	depth *ocean.DepthField
	rng   *rand.Rand

	waves     []*Wave // Insertion order
	nextID    ID
	time      float64
	lastSpawn float64
	stats     Stats

	width, length float64
	shore         Shore
	baseAngle     float64
	spawnY        float64
	speed         float64

	// OnRetire, if set, is called once for each wave when it is flagged retired.
	OnRetire func(w Wave, reason RetireReason)
}

// NewField validates cfg and detects the beach side of depth.
func NewField(depth *ocean.DepthField, cfg Config, rng *rand.Rand) (*Field, error) {
	if depth == nil {
		return nil, fmt.Errorf("%w: nil depth field", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	f := &Field{cfg: cfg, depth: depth, rng: rng, nextID: 1}
	f.width, f.length = depth.Dimensions()

	// Sample both ends of the y axis at mid-x; the shallower end is the beach.
	mid := f.width / 2
	near := depth.DepthAt(mid, f.length*0.05)
	far := depth.DepthAt(mid, f.length*0.95)

	ratio := cfg.SpawnRatio
	f.speed = cfg.SpeedPerPeriod * cfg.Period
	if f.length < cfg.SmallDomainLength {
		ratio = cfg.SmallSpawnRatio
		f.speed *= cfg.SmallSpeedScale
	}

	if far < near {
		f.shore = ShoreNorth
		f.baseAngle = math.Pi / 2
		f.spawnY = f.length * (1 - ratio)
	} else {
		f.shore = ShoreSouth
		f.baseAngle = -math.Pi / 2
		f.spawnY = f.length * ratio
	}

	slog.Debug("wave field ready", "shore", f.shore, "spawn_y", f.spawnY, "speed", f.speed)
	return f, nil
}

// Reset clears every wave and the clock, and swaps in rng for spawning.
func (f *Field) Reset(rng *rand.Rand) {
	if rng != nil {
		f.rng = rng
	}
	for i := range f.waves {
		f.waves[i] = nil
	}
	f.waves = f.waves[:0]
	f.nextID = 1
	f.time = 0
	f.lastSpawn = 0
	f.stats = Stats{}
}

// Step advances the field by dt seconds.
func (f *Field) Step(dt float64) {
	f.time += dt
	f.compact()

	if f.time-f.lastSpawn >= f.cfg.Period {
		f.spawn()
		f.lastSpawn = f.time
	}

	for _, w := range f.waves {
		if w.Retired {
			continue
		}
		f.update(w, dt)
		if reason, done := f.retireCheck(w); done {
			f.retire(w, reason)
		}
	}
}

// compact drops waves flagged on the previous step.
func (f *Field) compact() {
	live := f.waves[:0]
	for _, w := range f.waves {
		if !w.Retired {
			live = append(live, w)
		}
	}
	for i := len(live); i < len(f.waves); i++ {
		f.waves[i] = nil
	}
	f.waves = live
}

func (f *Field) spawn() {
	factor := f.cfg.MinHeightFactor + f.rng.Float64()*(f.cfg.MaxHeightFactor-f.cfg.MinHeightFactor)
	size := 0.0
	if f.cfg.MaxHeightFactor > f.cfg.MinHeightFactor {
		size = (factor - f.cfg.MinHeightFactor) / (f.cfg.MaxHeightFactor - f.cfg.MinHeightFactor)
	}

	angle := f.baseAngle
	if !f.cfg.StraightWaves {
		angle += (f.rng.Float64()*2 - 1) * f.cfg.MaxAngle
	}

	maxHeight := f.cfg.BaseHeight * factor
	w := &Wave{
		ID:                f.nextID,
		Center:            mgl64.Vec2{f.width / 2, f.spawnY},
		HalfLength:        f.width * f.cfg.FrontLengthRatio / 2,
		Angle:             NormalizeAngle(angle),
		Height:            maxHeight * 0.2,
		MaxHeight:         maxHeight,
		Speed:             f.speed,
		Phase:             Building,
		BuildingDuration:  f.cfg.BuildingTime.At(size),
		FrontDuration:     f.cfg.FrontTime.At(size),
		WhitewashDuration: f.cfg.WhitewashTime.At(size),
		CarryDuration:     f.cfg.CarryTime.At(size),
	}
	f.nextID++
	f.waves = append(f.waves, w)
	f.stats.Spawned++

	slog.Debug("wave spawned", "id", w.ID, "max_height", w.MaxHeight, "angle", w.Angle, "t", f.time)
}

func (f *Field) update(w *Wave, dt float64) {
	w.PhaseTimer += dt

	switch w.Phase {
	case Building:
		frac := math.Min(1, w.PhaseTimer/w.BuildingDuration)
		w.Height = w.MaxHeight * (0.2 + 0.8*frac)
		if w.PhaseTimer >= w.BuildingDuration {
			w.Phase = Front
			w.PhaseTimer = 0
			w.Height = w.MaxHeight
		}
		f.refract(w, dt)

	case Front:
		w.Height = w.MaxHeight
		d := f.depth.DepthAt(w.Center.X(), w.Center.Y())
		if (d > 0 && w.Height > d*f.cfg.BreakingDepthRatio) || w.PhaseTimer >= w.FrontDuration {
			f.breakWave(w)
		} else {
			f.refract(w, dt)
		}

	case Whitewash:
		w.Height *= f.cfg.WhitewashDecay
		w.Speed *= f.cfg.WhitewashDecay
	}

	if w.Phase != Whitewash && f.hitsPier(w) {
		f.breakWave(w)
	}

	w.Center = w.Center.Add(w.Direction().Mul(w.Speed * dt))
}

func (f *Field) breakWave(w *Wave) {
	w.Phase = Whitewash
	w.PhaseTimer = 0
	w.Height *= f.cfg.BreakHeightFactor
	f.stats.Broken++
}

// refract turns the wave toward the down-slope direction in shallow water.
func (f *Field) refract(w *Wave, dt float64) {
	d := f.depth.DepthAt(w.Center.X(), w.Center.Y())
	if d <= 0 || d >= f.cfg.RefractionDepth {
		return
	}
	gx, gy := f.depth.GradientAt(w.Center.X(), w.Center.Y())
	if gx == 0 && gy == 0 {
		return
	}
	target := math.Atan2(-gy, -gx)
	delta := AngleDelta(w.Angle, target)
	limit := f.cfg.RefractionRate * dt
	w.Angle = NormalizeAngle(w.Angle + math.Max(-limit, math.Min(limit, delta)))
}

func (f *Field) hitsPier(w *Wave) bool {
	for _, p := range f.cfg.Piers {
		if w.SegmentDistance(p) < f.cfg.PierRadius {
			return true
		}
	}
	return false
}

func (f *Field) retireCheck(w *Wave) (RetireReason, bool) {
	y := w.Center.Y()
	if (f.shore == ShoreSouth && y <= 0) || (f.shore == ShoreNorth && y >= f.length) {
		return RetiredShore, true
	}
	if w.Phase == Whitewash && (w.Height < f.cfg.RemovalHeight || w.PhaseTimer >= w.WhitewashDuration) {
		return RetiredDecayed, true
	}
	x := w.Center.X()
	if x < -w.HalfLength || x > f.width+w.HalfLength || y < 0 || y > f.length {
		return RetiredOffside, true
	}
	return 0, false
}

func (f *Field) retire(w *Wave, reason RetireReason) {
	w.Retired = true
	switch reason {
	case RetiredShore:
		f.stats.RetiredShore++
	case RetiredDecayed:
		f.stats.RetiredDecayed++
	default:
		f.stats.RetiredOffside++
	}
	slog.Debug("wave retired", "id", w.ID, "reason", reason, "phase", w.Phase, "t", f.time)
	if f.OnRetire != nil {
		f.OnRetire(*w, reason)
	}
}

// HeightAt sums each live wave's linear falloff contribution at (x, y).
func (f *Field) HeightAt(x, y float64) float64 {
	p := mgl64.Vec2{x, y}
	total := 0.0
	for _, w := range f.waves {
		if w.Retired {
			continue
		}
		if d := w.SegmentDistance(p); d < f.cfg.InfluenceThickness {
			total += w.Height * (1 - d/f.cfg.InfluenceThickness)
		}
	}
	return total
}

// VelocityAt sums each live wave's travel vector weighted by phase strength and falloff.
func (f *Field) VelocityAt(x, y float64) (vx, vy float64) {
	p := mgl64.Vec2{x, y}
	var v mgl64.Vec2
	for _, w := range f.waves {
		if w.Retired {
			continue
		}
		if d := w.SegmentDistance(p); d < f.cfg.InfluenceThickness {
			s := w.Speed * phaseStrength[w.Phase] * (1 - d/f.cfg.InfluenceThickness)
			v = v.Add(w.Direction().Mul(s))
		}
	}
	return v.X(), v.Y()
}

// Nearest returns a copy of the wave closest to (x, y) and the distance to
// its front. Waves whose front spans the point win over those that don't.
func (f *Field) Nearest(x, y float64) (Wave, float64, bool) {
	p := mgl64.Vec2{x, y}
	var best *Wave
	bestDist := math.Inf(1)
	bestCovers := false

	for _, w := range f.waves {
		if w.Retired {
			continue
		}
		covers := w.Covers(p)
		d := w.SegmentDistance(p)
		switch {
		case covers && !bestCovers:
		case covers == bestCovers && d < bestDist:
		default:
			continue
		}
		best, bestDist, bestCovers = w, d, covers
	}

	if best == nil {
		return Wave{}, 0, false
	}
	return *best, bestDist, true
}

// Get looks up a live wave by handle.
func (f *Field) Get(id ID) (Wave, bool) {
	for _, w := range f.waves {
		if w.ID == id && !w.Retired {
			return *w, true
		}
	}
	return Wave{}, false
}

// Waves returns copies of the live waves in spawn order.
func (f *Field) Waves() []Wave {
	out := make([]Wave, 0, len(f.waves))
	for _, w := range f.waves {
		if !w.Retired {
			out = append(out, *w)
		}
	}
	return out
}

// Len returns the number of live waves.
func (f *Field) Len() int {
	n := 0
	for _, w := range f.waves {
		if !w.Retired {
			n++
		}
	}
	return n
}

// InWaveZone reports whether the depth at (x, y) lies strictly inside the wave zone band.
func (f *Field) InWaveZone(x, y float64) bool {
	d := f.depth.DepthAt(x, y)
	return d > f.cfg.WaveZoneMin && d < f.cfg.WaveZoneMax
}

// ShoreDistance is how far a point at y is from the beach edge.
func (f *Field) ShoreDistance(y float64) float64 {
	if f.shore == ShoreNorth {
		return f.length - y
	}
	return y
}

// Time is the elapsed simulation time in seconds.
func (f *Field) Time() float64 { return f.time }

// Shore returns the detected beach side.
func (f *Field) Shore() Shore { return f.shore }

// BaseAngle is the straight-on travel direction toward the beach.
func (f *Field) BaseAngle() float64 { return f.baseAngle }

// Stats returns lifecycle counters.
func (f *Field) Stats() Stats { return f.stats }

// Config returns the field's configuration.
func (f *Field) Config() Config { return f.cfg }
