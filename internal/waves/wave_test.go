package waves

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeAngle(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{7, 7 - 2*math.Pi},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, NormalizeAngle(tc.in), 1e-9, "normalize %g", tc.in)
	}
	assert.InDelta(t, 0.2, AngleDiff(math.Pi-0.1, -math.Pi+0.1), 1e-9)
	assert.InDelta(t, -0.2, AngleDelta(-math.Pi+0.1, math.Pi-0.1), 1e-9)
}

func TestWaveGeometry(t *testing.T) {
	w := Wave{Center: mgl64.Vec2{10, 20}, HalfLength: 5, Angle: -math.Pi / 2}

	a, b := w.Endpoints()
	assert.InDelta(t, 5, math.Min(a.X(), b.X()), 1e-9)
	assert.InDelta(t, 15, math.Max(a.X(), b.X()), 1e-9)
	assert.InDelta(t, 20, a.Y(), 1e-9)

	assert.InDelta(t, 3, w.SegmentDistance(mgl64.Vec2{12, 23}), 1e-9)
	assert.InDelta(t, 5, w.SegmentDistance(mgl64.Vec2{18, 24}), 1e-9)
	assert.True(t, w.Covers(mgl64.Vec2{14, 0}))
	assert.False(t, w.Covers(mgl64.Vec2{16, 20}))

	along, across := w.Offset(mgl64.Vec2{10, 18})
	assert.InDelta(t, 0, along, 1e-9)
	assert.InDelta(t, 2, across, 1e-9) // ahead of the front, toward shore
}

func TestOptimalHeadingsAreSymmetric(t *testing.T) {
	for _, theta := range []float64{0, math.Pi / 4, math.Pi / 2, -math.Pi / 4, math.Pi, -math.Pi / 2} {
		w := Wave{Angle: theta}
		h := w.OptimalHeadings()
		back := theta + math.Pi
		assert.InDelta(t, math.Pi/4, AngleDiff(h[0], back), 1e-9)
		assert.InDelta(t, math.Pi/4, AngleDiff(h[1], back), 1e-9)
		assert.InDelta(t, math.Pi/2, AngleDiff(h[0], h[1]), 1e-9)
		assert.InDelta(t, 0, w.HeadingError(h[0]), 1e-9)
		assert.InDelta(t, 0, w.HeadingError(h[1]), 1e-9)
		assert.InDelta(t, math.Pi/2, w.HeadingError(theta+math.Pi/4), 1e-9)
		assert.Equal(t, h[1], w.NearestHeading(h[1]+0.01))
	}
}

func TestPhasePredicates(t *testing.T) {
	assert.False(t, (&Wave{Phase: Building}).Rideable())
	assert.False(t, (&Wave{Phase: Building}).Breaking())
	assert.True(t, (&Wave{Phase: Front}).Rideable())
	assert.True(t, (&Wave{Phase: Front}).Breaking())
	assert.False(t, (&Wave{Phase: Whitewash}).Rideable())
	assert.Equal(t, "whitewash", Whitewash.String())
}

func TestSpanAt(t *testing.T) {
	s := Span{Small: 2, Large: 5}
	assert.Equal(t, 2.0, s.At(0))
	assert.Equal(t, 5.0, s.At(1))
	assert.Equal(t, 3.5, s.At(0.5))
}
