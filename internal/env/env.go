// Package env ties the depth field, wave field, surfer and obstacle swarm
// into an episodic environment: Reset starts an episode, Step advances it by
// one fixed timestep and returns the observation, reward and end signals.
package env

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/talgya/surf-world/internal/entropy"
	"github.com/talgya/surf-world/internal/obstacles"
	"github.com/talgya/surf-world/internal/ocean"
	"github.com/talgya/surf-world/internal/surfer"
	"github.com/talgya/surf-world/internal/waves"
)

// StepResult is everything one Step returns.
type StepResult struct {
	Observation Observation `json:"observation"`
	Reward      float64     `json:"reward"`
	Terminated  bool        `json:"terminated"`
	Truncated   bool        `json:"truncated"`
	Info        Info        `json:"info"`
	Events      []Event     `json:"events,omitempty"`
}

// Done reports whether the episode ended on this step.
func (r StepResult) Done() bool { return r.Terminated || r.Truncated }

// Env is one episode instance. It owns its wave field, surfer and swarm
// exclusively and is not safe for concurrent use.
type Env struct {
	cfg       Config
	depth     *ocean.DepthField
	waves     *waves.Field
	body      *surfer.Body
	obstacles *obstacles.Field
	seeds     func() int64

	width, length float64

	running     bool
	steps       int
	surfTime    float64
	reachedZone bool
	summary     Summary
	events      []Event // Current episode
}

// New builds an environment over depth. The episode does not start until Reset.
func New(depth *ocean.DepthField, cfg Config) (*Env, error) {
	if depth == nil {
		return nil, fmt.Errorf("%w: nil depth field", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	wf, err := waves.NewField(depth, cfg.Waves, nil)
	if err != nil {
		return nil, fmt.Errorf("wave field: %w", err)
	}
	body, err := surfer.New(cfg.Surfer, nil)
	if err != nil {
		return nil, fmt.Errorf("surfer: %w", err)
	}
	width, length := depth.Dimensions()
	obs, err := obstacles.New(width, length, cfg.Obstacles, nil)
	if err != nil {
		return nil, fmt.Errorf("obstacles: %w", err)
	}

	return &Env{
		cfg:       cfg,
		depth:     depth,
		waves:     wf,
		body:      body,
		obstacles: obs,
		seeds:     entropy.CryptoSeed,
		width:     width,
		length:    length,
	}, nil
}

// SetSeedSource replaces where Reset draws a seed from when none is given.
func (e *Env) SetSeedSource(fn func() int64) {
	if fn != nil {
		e.seeds = fn
	}
}

// Reset starts a new episode. A nil seed draws one from the seed source.
// Waves, obstacles and the surfer each get their own stream derived from
// the seed, so the same seed replays the same episode.
func (e *Env) Reset(seed *int64) (Observation, Info) {
	var s int64
	if seed != nil {
		s = *seed
	} else {
		s = e.seeds()
	}

	e.waves.Reset(rand.New(rand.NewSource(s + 1)))
	e.obstacles.Spawn(rand.New(rand.NewSource(s + 2)))
	e.body.Reseed(rand.New(rand.NewSource(s + 3)))

	x, y := e.startPosition()
	e.body.Reset(x, y, e.SeawardHeading())

	e.running = true
	e.steps = 0
	e.surfTime = 0
	e.reachedZone = false
	e.events = e.events[:0]
	e.summary = Summary{
		Episode:          uuid.NewString(),
		Seed:             s,
		StartedAt:        time.Now().UTC(),
		MaxShoreDistance: e.waves.ShoreDistance(y),
	}

	slog.Debug("episode reset", "episode", e.summary.Episode, "seed", s, "x", x, "y", y)
	return e.observe(), e.info()
}

// startPosition walks seaward from the beach edge at mid-x and returns the
// first point whose depth lies inside the start band.
func (e *Env) startPosition() (x, y float64) {
	x = e.width / 2
	seaward := 1.0
	y0 := 0.0
	if e.waves.Shore() == waves.ShoreNorth {
		seaward, y0 = -1, e.length
	}
	for d := 0.0; d <= e.length; d += e.cfg.StartSearchStep {
		y = y0 + seaward*d
		if depth := e.depth.DepthAt(x, y); depth > e.cfg.StartMinDepth && depth < e.cfg.StartMaxDepth {
			return x, y
		}
	}
	return x, y0 + seaward*math.Min(10, 0.2*e.length)
}

// Step advances the episode by one timestep. It fails with ErrActionWidth
// on a malformed action (nothing changes) and with ErrNotReset when no
// episode is running.
func (e *Env) Step(raw []float64) (StepResult, error) {
	if !e.running {
		return StepResult{}, ErrNotReset
	}
	act, err := DecodeAction(raw)
	if err != nil {
		return StepResult{}, err
	}

	dt := e.cfg.DT
	e.steps++
	var evs []Event
	emit := func(kind EventKind, detail string) {
		s := e.body.State()
		evs = append(evs, Event{Step: e.steps, Kind: kind, X: s.X, Y: s.Y, Detail: detail})
	}
	var facts stepFacts

	e.body.ApplyRotation(act.Rotate, dt)

	pre := e.body.State()
	near, nearDist, hasNear := e.waves.Nearest(pre.X, pre.Y)

	switch pre.Mode {
	case surfer.Swimming:
		e.body.ApplySwimming(act.SwimX, act.SwimY, act.DuckDive, dt)
		if hasNear && e.body.TryCatch(near, nearDist) {
			facts.caught = true
			e.summary.Catches++
			emit(EventCatch, fmt.Sprintf("wave %d", near.ID))
		}
	case surfer.BeingCarried:
		if act.StandUp {
			herr := math.Pi
			if w, ok := e.waves.Get(pre.Riding); ok {
				herr = w.HeadingError(pre.Yaw)
			}
			switch res := e.body.TryStandUp(herr); res {
			case surfer.StandUpOK:
				e.summary.StandUps++
				emit(EventStandUp, "")
			case surfer.StandUpTooEarly, surfer.StandUpBadAngle:
				facts.wipeout = true
				e.summary.Wipeouts++
				emit(EventStandUpFailed, res.String())
			}
		}
	case surfer.Surfing:
		e.body.ApplySurfing(act.Lean, act.Turn, dt)
	case surfer.WhitewashCarry:
		if act.DuckDive && e.body.EscapeWhitewash() {
			e.summary.Escapes++
			emit(EventEscape, "")
		}
	}

	cur := e.body.State()
	ridden := e.ridden(cur)
	if cur.Riding != 0 && ridden == nil {
		e.body.KickOut()
		emit(EventWaveLost, "gone")
	}

	cur = e.body.State()
	vx, vy := e.waves.VelocityAt(cur.X, cur.Y)
	contact := surfer.Contact{
		WaveHeight: e.waves.HeightAt(cur.X, cur.Y),
		WaveVX:     vx,
		WaveVY:     vy,
		Depth:      e.depth.DepthAt(cur.X, cur.Y),
		NearWave:   hasNear && nearDist < near.Height*e.cfg.NearWaveFactor,
		Ridden:     ridden,
	}
	before := cur.Mode
	e.body.UpdatePhysics(contact, dt)
	if after := e.body.Mode(); after != before && after == surfer.Swimming {
		if before == surfer.BeingCarried {
			emit(EventWaveLost, "carry released")
		} else {
			emit(EventWaveLost, "broke")
		}
	}

	e.waves.Step(dt)
	e.obstacles.Update(dt)

	post := e.body.State()
	if !e.reachedZone && e.waves.InWaveZone(post.X, post.Y) {
		e.reachedZone = true
		facts.enteredZone = true
		emit(EventWaveZone, "")
	}
	if e.body.CheckWipeout(e.waves.HeightAt(post.X, post.Y)) {
		facts.wipeout = true
		e.summary.Wipeouts++
		emit(EventWipeout, "")
	}

	post = e.body.State()
	var res StepResult
	if e.obstacles.CheckCollision(post.X, post.Y, post.Z, e.cfg.Surfer.Radius) {
		facts.collided = true
		res.Terminated = true
		emit(EventCollision, "")
	}
	if !res.Terminated && (post.X < 0 || post.X > e.width || post.Y < 0 || post.Y > e.length) {
		res.Terminated = true
		emit(EventOutOfBounds, "")
	}
	if !res.Terminated && e.steps >= e.cfg.MaxEpisodeSteps {
		res.Truncated = true
		emit(EventTruncated, "")
	}

	if post.Mode == surfer.Surfing {
		e.surfTime += dt
	}

	res.Observation = e.observe()
	facts.mode = post.Mode
	facts.diving = post.DuckDiving
	facts.nearWave = contact.NearWave
	facts.hasWave = e.waves.Len() > 0
	facts.headingErr = e.headingError(post)
	facts.seaward = mgl64.Vec2{post.VX, post.VY}.Dot(e.seawardDir())
	facts.speed = post.Speed()
	res.Reward = e.cfg.Rewards.score(facts, dt, e.cfg.Surfer.CatchTolerance)

	e.events = append(e.events, evs...)
	res.Events = evs
	e.record(res, post)
	res.Info = e.info()
	return res, nil
}

// ridden resolves the wave the surfer is attached to. A wave that is gone
// or has drifted out of reach yields nil.
func (e *Env) ridden(s surfer.State) *waves.Wave {
	if s.Riding == 0 {
		return nil
	}
	w, ok := e.waves.Get(s.Riding)
	if !ok || w.SegmentDistance(mgl64.Vec2{s.X, s.Y}) > e.cfg.RideReach {
		return nil
	}
	return &w
}

// SeawardHeading is the yaw that points away from the beach.
func (e *Env) SeawardHeading() float64 {
	return waves.NormalizeAngle(e.waves.BaseAngle() + math.Pi)
}

func (e *Env) seawardDir() mgl64.Vec2 {
	a := e.SeawardHeading()
	return mgl64.Vec2{math.Cos(a), math.Sin(a)}
}

// headingError is the angular distance from the closest optimal heading of
// the ridden wave, or of the nearest wave when not attached. π when there
// is no wave.
func (e *Env) headingError(s surfer.State) float64 {
	if s.Riding != 0 {
		if w, ok := e.waves.Get(s.Riding); ok {
			return w.HeadingError(s.Yaw)
		}
	}
	w, _, ok := e.waves.Nearest(s.X, s.Y)
	if !ok {
		return math.Pi
	}
	return w.HeadingError(s.Yaw)
}

func (e *Env) record(res StepResult, s surfer.State) {
	sum := &e.summary
	sum.Steps = e.steps
	sum.TotalReward += res.Reward
	sum.SurfTime = e.surfTime
	sum.ReachedWaveZone = e.reachedZone
	sum.WavesSpawned = e.waves.Stats().Spawned
	sum.MaxShoreDistance = math.Max(sum.MaxShoreDistance, e.waves.ShoreDistance(s.Y))

	if !res.Done() {
		return
	}
	e.running = false
	sum.EndedAt = time.Now().UTC()
	switch {
	case res.Truncated:
		sum.Reason = EventTruncated
	default:
		sum.Reason = res.Events[len(res.Events)-1].Kind
	}
	slog.Debug("episode ended", "episode", sum.Episode, "reason", sum.Reason,
		"steps", sum.Steps, "reward", sum.TotalReward, "surf_time", sum.SurfTime)
}

// observe assembles the observation at the surfer's current position.
func (e *Env) observe() Observation {
	s := e.body.State()
	width := ObsLenNoAngle
	if e.cfg.AngleBlock {
		width = ObsLen
	}
	obs := make(Observation, 0, width)
	obs = append(obs, s.Vector()...)

	vx, vy := e.waves.VelocityAt(s.X, s.Y)
	w, dist, ok := e.waves.Nearest(s.X, s.Y)
	if !ok {
		dist = e.cfg.NoWaveDistance
	}
	obs = append(obs, e.waves.HeightAt(s.X, s.Y), vx, vy, dist, flag(ok && w.Breaking()))

	dx, dy, od := e.obstacles.NearestVector(s.X, s.Y, e.cfg.ObstacleRange)
	obs = append(obs, dx, dy, od)

	obs = append(obs,
		e.depth.DepthAt(s.X, s.Y),
		e.waves.ShoreDistance(s.Y),
		flag(e.waves.InWaveZone(s.X, s.Y)),
	)

	if e.cfg.AngleBlock {
		herr, angle := math.Pi, 0.0
		if ok {
			herr, angle = w.HeadingError(s.Yaw), w.Angle
		}
		standErr := math.Pi
		if r, found := e.waves.Get(s.Riding); found {
			standErr = r.HeadingError(s.Yaw)
		}
		obs = append(obs, herr, flag(e.body.CanStandUp(standErr)), angle)
	}
	return obs
}

func (e *Env) info() Info {
	s := e.body.State()
	return Info{
		Episode:   e.summary.Episode,
		Step:      e.steps,
		X:         s.X,
		Y:         s.Y,
		Mode:      s.Mode.String(),
		Swimming:  s.Mode == surfer.Swimming,
		Surfing:   s.Mode == surfer.Surfing,
		SurfTime:  e.surfTime,
		WaveCount: e.waves.Len(),
	}
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Summary returns the aggregates of the current or last episode.
func (e *Env) Summary() Summary { return e.summary }

// Events returns a copy of the current episode's events.
func (e *Env) Events() []Event { return append([]Event(nil), e.events...) }

// Running reports whether an episode is in progress.
func (e *Env) Running() bool { return e.running }

// Steps is the step count of the current episode.
func (e *Env) Steps() int { return e.steps }

// Depth returns the static depth field.
func (e *Env) Depth() *ocean.DepthField { return e.depth }

// Waves returns copies of the live waves.
func (e *Env) Waves() []waves.Wave { return e.waves.Waves() }

// WaveStats returns the wave lifecycle counters for this episode.
func (e *Env) WaveStats() waves.Stats { return e.waves.Stats() }

// Surfer returns the surfer state.
func (e *Env) Surfer() surfer.State { return e.body.State() }

// Obstacles returns copies of the swarm.
func (e *Env) Obstacles() []obstacles.Obstacle { return e.obstacles.Obstacles() }

// Time is the simulated time of the current episode.
func (e *Env) Time() float64 { return e.waves.Time() }

// Config returns the environment configuration.
func (e *Env) Config() Config { return e.cfg }
