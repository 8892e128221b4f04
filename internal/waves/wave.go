package waves

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Phase is a wave's lifecycle stage. Transitions only move forward.
type Phase int

const (
	Building  Phase = iota // Growing toward max height, not yet rideable
	Front                  // Full height, rideable
	Whitewash              // Broken, decaying foam
)

func (p Phase) String() string {
	switch p {
	case Building:
		return "building"
	case Front:
		return "front"
	case Whitewash:
		return "whitewash"
	default:
		return "unknown"
	}
}

// ID is a stable wave handle. IDs are never reused within a field.
type ID uint64

// Wave is one traveling wave front: a segment centered on Center, perpendicular
// to its travel direction Angle.
type Wave struct {
	ID         ID         `json:"id"`
	Center     mgl64.Vec2 `json:"center"`
	HalfLength float64    `json:"half_length"`
	Angle      float64    `json:"angle"` // Travel direction, radians
	Height     float64    `json:"height"`
	MaxHeight  float64    `json:"max_height"`
	Speed      float64    `json:"speed"`
	Phase      Phase      `json:"phase"`
	PhaseTimer float64    `json:"phase_timer"`

	BuildingDuration  float64 `json:"building_duration"`
	FrontDuration     float64 `json:"front_duration"`
	WhitewashDuration float64 `json:"whitewash_duration"`
	CarryDuration     float64 `json:"carry_duration"` // Carry time needed before standing up on this wave

	Retired bool `json:"-"`
}

// Direction is the unit travel vector.
func (w *Wave) Direction() mgl64.Vec2 {
	return mgl64.Vec2{math.Cos(w.Angle), math.Sin(w.Angle)}
}

// Axis is the unit vector along the front line.
func (w *Wave) Axis() mgl64.Vec2 {
	return mgl64.Vec2{-math.Sin(w.Angle), math.Cos(w.Angle)}
}

// Endpoints returns the two ends of the front segment.
func (w *Wave) Endpoints() (a, b mgl64.Vec2) {
	half := w.Axis().Mul(w.HalfLength)
	return w.Center.Sub(half), w.Center.Add(half)
}

// Offset decomposes p relative to the wave center into a component along the
// front line and a signed component along the travel direction.
func (w *Wave) Offset(p mgl64.Vec2) (along, across float64) {
	rel := p.Sub(w.Center)
	return rel.Dot(w.Axis()), rel.Dot(w.Direction())
}

// Covers reports whether p lies within the lateral extent of the front.
func (w *Wave) Covers(p mgl64.Vec2) bool {
	along, _ := w.Offset(p)
	return math.Abs(along) <= w.HalfLength
}

// SegmentDistance is the distance from p to the closest point of the front segment.
func (w *Wave) SegmentDistance(p mgl64.Vec2) float64 {
	along, across := w.Offset(p)
	if excess := math.Abs(along) - w.HalfLength; excess > 0 {
		return math.Hypot(excess, across)
	}
	return math.Abs(across)
}

// Rideable reports whether the wave can be caught.
func (w *Wave) Rideable() bool { return w.Phase == Front }

// Breaking reports whether the wave has broken or is breaking.
func (w *Wave) Breaking() bool { return w.Phase != Building }

// OptimalHeadings returns the two catch headings, one per shoulder:
// the reverse travel direction rotated by ±45°.
func (w *Wave) OptimalHeadings() [2]float64 {
	back := w.Angle + math.Pi
	return [2]float64{
		NormalizeAngle(back + math.Pi/4),
		NormalizeAngle(back - math.Pi/4),
	}
}

// HeadingError is the angular distance from yaw to the closer optimal heading.
func (w *Wave) HeadingError(yaw float64) float64 {
	h := w.OptimalHeadings()
	return math.Min(AngleDiff(yaw, h[0]), AngleDiff(yaw, h[1]))
}

// NearestHeading returns whichever optimal heading is closer to yaw.
func (w *Wave) NearestHeading(yaw float64) float64 {
	h := w.OptimalHeadings()
	if AngleDiff(yaw, h[0]) <= AngleDiff(yaw, h[1]) {
		return h[0]
	}
	return h[1]
}
