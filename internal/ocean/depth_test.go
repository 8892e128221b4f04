package ocean

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformGrid(rows, cols int, v float64) [][]float64 {
	g := make([][]float64, rows)
	for r := range g {
		g[r] = make([]float64, cols)
		for c := range g[r] {
			g[r][c] = v
		}
	}
	return g
}

func TestNewDepthFieldRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name     string
		grid     [][]float64
		cellSize float64
		want     error
	}{
		{"no rows", nil, 1, ErrInvalidGrid},
		{"no cols", [][]float64{{}, {}}, 1, ErrInvalidGrid},
		{"ragged", [][]float64{{1, 2}, {1}}, 1, ErrInvalidGrid},
		{"single row", [][]float64{{1, 2, 3}}, 1, ErrInvalidGrid},
		{"negative sample", [][]float64{{1, -2}, {1, 1}}, 1, ErrInvalidGrid},
		{"nan sample", [][]float64{{1, math.NaN()}, {1, 1}}, 1, ErrInvalidGrid},
		{"zero cell", uniformGrid(2, 2, 1), 0, ErrInvalidCellSize},
		{"negative cell", uniformGrid(2, 2, 1), -0.5, ErrInvalidCellSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDepthField(tc.grid, tc.cellSize)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestDepthAtInterpolatesBilinearly(t *testing.T) {
	d, err := NewDepthField([][]float64{
		{0, 2},
		{4, 6},
		{4, 6},
	}, 1)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, d.DepthAt(0, 0), 1e-12)
	assert.InDelta(t, 1.0, d.DepthAt(0.5, 0), 1e-12)
	assert.InDelta(t, 2.0, d.DepthAt(0, 0.5), 1e-12)
	assert.InDelta(t, 3.0, d.DepthAt(0.5, 0.5), 1e-12)
}

func TestDepthAtOutOfBoundsIsDry(t *testing.T) {
	d, err := NewDepthField(uniformGrid(10, 20, 5), 0.5)
	require.NoError(t, err)
	w, h := d.Dimensions()
	assert.Equal(t, 10.0, w)
	assert.Equal(t, 5.0, h)

	for _, p := range [][2]float64{
		{-0.01, 2}, {2, -0.01}, {w, 2}, {2, h}, {w + 3, h + 3}, {-100, -100},
	} {
		assert.Equal(t, 0.0, d.DepthAt(p[0], p[1]), "point %v", p)
	}
	assert.InDelta(t, 5.0, d.DepthAt(5, 2), 1e-12)
}

func TestDepthIsContinuousAcrossCellBoundaries(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Profile = ProfileNoise
	cfg.Seed = 7
	d, err := Generate(cfg)
	require.NoError(t, err)

	// Lipschitz bound: the steepest cell edge bounds the local slope.
	maxStep := 0.0
	for r := 0; r < d.Rows()-1; r++ {
		for c := 0; c < d.Cols()-1; c++ {
			maxStep = math.Max(maxStep, math.Abs(d.Sample(r, c+1)-d.Sample(r, c)))
			maxStep = math.Max(maxStep, math.Abs(d.Sample(r+1, c)-d.Sample(r, c)))
		}
	}
	slope := maxStep / d.CellSize()

	eps := 1e-6
	for x := 1.0; x < 40; x += 0.5 {
		for y := 1.0; y < 90; y += 0.5 {
			a := d.DepthAt(x-eps, y-eps)
			b := d.DepthAt(x+eps, y+eps)
			assert.LessOrEqual(t, math.Abs(a-b), slope*4*eps+1e-9, "jump at (%g,%g)", x, y)
		}
	}
}

func TestGradientAtSlope(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Profile = ProfileSlope
	d, err := Generate(cfg)
	require.NoError(t, err)

	gx, gy := d.GradientAt(25, 50)
	assert.InDelta(t, 0.0, gx, 1e-9)
	assert.InDelta(t, cfg.MaxDepth/cfg.Length, gy, 1e-6)
}

func TestIsShore(t *testing.T) {
	d, err := Generate(GenConfig{Width: 20, Length: 60, CellSize: 0.5, MaxDepth: 15, Profile: ProfileRamp, RampStart: 5, RampEnd: 50})
	require.NoError(t, err)
	assert.True(t, d.IsShore(10, 2, DefaultShoreThreshold))
	assert.False(t, d.IsShore(10, 30, DefaultShoreThreshold))
}

func TestSummary(t *testing.T) {
	d, err := NewDepthField([][]float64{{0, 0}, {2, 6}}, 1)
	require.NoError(t, err)
	s := d.Summary()
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 6.0, s.Max)
	assert.InDelta(t, 2.0, s.Mean, 1e-12)
	assert.InDelta(t, 0.5, s.DryFrac, 1e-12)
}
