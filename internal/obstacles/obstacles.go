// Package obstacles simulates a fixed swarm of drifting jellyfish. Each one
// wanders at constant speed, bounces off the domain edges and occasionally
// picks a new heading. An R-tree indexes the swarm for proximity queries.
package obstacles

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/dhconnelly/rtreego"
)

// ErrInvalidConfig reports swarm parameters out of range.
var ErrInvalidConfig = errors.New("obstacles: invalid config")

// Config describes the swarm.
type Config struct {
	Count      int
	MinDepth   float64 // Depth below the surface, meters
	MaxDepth   float64
	Speed      float64
	Radius     float64
	TurnChance float64 // Per-step probability of a random new heading
	DepthBand  float64 // Vertical separation within which contact counts
}

// DefaultConfig returns the standard swarm.
func DefaultConfig() Config {
	return Config{
		Count:      5,
		MinDepth:   0.5,
		MaxDepth:   3,
		Speed:      0.2,
		Radius:     0.3,
		TurnChance: 0.01,
		DepthBand:  1,
	}
}

// Validate checks the config.
func (c Config) Validate() error {
	switch {
	case c.Count < 0:
		return fmt.Errorf("%w: count %d", ErrInvalidConfig, c.Count)
	case c.MinDepth < 0 || c.MaxDepth < c.MinDepth:
		return fmt.Errorf("%w: depth range [%g, %g]", ErrInvalidConfig, c.MinDepth, c.MaxDepth)
	case c.Speed < 0:
		return fmt.Errorf("%w: speed %g", ErrInvalidConfig, c.Speed)
	case c.Radius <= 0:
		return fmt.Errorf("%w: radius %g", ErrInvalidConfig, c.Radius)
	case c.TurnChance < 0 || c.TurnChance > 1:
		return fmt.Errorf("%w: turn chance %g", ErrInvalidConfig, c.TurnChance)
	case c.DepthBand <= 0:
		return fmt.Errorf("%w: depth band %g", ErrInvalidConfig, c.DepthBand)
	}
	return nil
}

// Obstacle is one jellyfish. Depth is positive below the surface.
type Obstacle struct {
	X, Y   float64
	Depth  float64
	VX, VY float64
	Radius float64
}

// Bounds implements rtreego.Spatial.
func (o *Obstacle) Bounds() rtreego.Rect {
	return rtreego.Point{o.X, o.Y}.ToRect(o.Radius)
}

// Field owns the swarm. Not safe for concurrent use.
type Field struct {
	cfg           Config
	width, length float64
	rng           *rand.Rand
	items         []*Obstacle
	tree          *rtreego.Rtree
}

// New builds an empty swarm over a width × length domain. Call Spawn to populate it.
func New(width, length float64, cfg Config, rng *rand.Rand) (*Field, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || length <= 0 {
		return nil, fmt.Errorf("%w: domain %gx%g", ErrInvalidConfig, width, length)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	f := &Field{cfg: cfg, width: width, length: length, rng: rng}
	f.reindex()
	return f, nil
}

// Spawn replaces the swarm with Count freshly placed obstacles drawn from rng.
func (f *Field) Spawn(rng *rand.Rand) {
	if rng != nil {
		f.rng = rng
	}
	f.items = f.items[:0]
	for i := 0; i < f.cfg.Count; i++ {
		o := &Obstacle{
			X:      f.rng.Float64() * f.width,
			Y:      f.rng.Float64() * f.length,
			Depth:  f.cfg.MinDepth + f.rng.Float64()*(f.cfg.MaxDepth-f.cfg.MinDepth),
			Radius: f.cfg.Radius,
		}
		f.randomHeading(o)
		f.items = append(f.items, o)
	}
	f.reindex()
}

func (f *Field) randomHeading(o *Obstacle) {
	a := f.rng.Float64() * 2 * math.Pi
	o.VX = math.Cos(a) * f.cfg.Speed
	o.VY = math.Sin(a) * f.cfg.Speed
}

// Update moves every obstacle, reflecting velocity at the domain edges.
func (f *Field) Update(dt float64) {
	for _, o := range f.items {
		o.X += o.VX * dt
		o.Y += o.VY * dt

		if o.X < 0 || o.X > f.width {
			o.VX = -o.VX
			o.X = math.Max(0, math.Min(f.width, o.X))
		}
		if o.Y < 0 || o.Y > f.length {
			o.VY = -o.VY
			o.Y = math.Max(0, math.Min(f.length, o.Y))
		}

		if f.rng.Float64() < f.cfg.TurnChance {
			f.randomHeading(o)
		}
	}
	f.reindex()
}

func (f *Field) reindex() {
	objs := make([]rtreego.Spatial, len(f.items))
	for i, o := range f.items {
		objs[i] = o
	}
	f.tree = rtreego.NewTree(2, 25, 50, objs...)
}

// near returns obstacles whose bounds intersect the square of half-size reach around (x, y).
func (f *Field) near(x, y, reach float64) []*Obstacle {
	if f.tree.Size() == 0 {
		return nil
	}
	hits := f.tree.SearchIntersect(rtreego.Point{x, y}.ToRect(reach))
	out := make([]*Obstacle, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*Obstacle))
	}
	return out
}

// CheckCollision reports whether a body of the given radius at (x, y, z)
// touches any obstacle. z is the body's vertical offset (negative when
// submerged); contact requires the depths to be within DepthBand.
func (f *Field) CheckCollision(x, y, z, radius float64) bool {
	for _, o := range f.near(x, y, radius+f.cfg.Radius) {
		if math.Abs(z+o.Depth) >= f.cfg.DepthBand {
			continue
		}
		if math.Hypot(x-o.X, y-o.Y) < radius+o.Radius {
			return true
		}
	}
	return false
}

// NearestVector returns the offset and distance to the closest obstacle
// within maxDist, or (0, 0, maxDist) if there is none.
func (f *Field) NearestVector(x, y, maxDist float64) (dx, dy, dist float64) {
	dist = maxDist
	for _, o := range f.near(x, y, maxDist) {
		if d := math.Hypot(o.X-x, o.Y-y); d < dist {
			dx, dy, dist = o.X-x, o.Y-y, d
		}
	}
	return dx, dy, dist
}

// Obstacles returns copies of the swarm.
func (f *Field) Obstacles() []Obstacle {
	out := make([]Obstacle, len(f.items))
	for i, o := range f.items {
		out[i] = *o
	}
	return out
}

// Len returns the swarm size.
func (f *Field) Len() int { return len(f.items) }

// Config returns the swarm configuration.
func (f *Field) Config() Config { return f.cfg }
