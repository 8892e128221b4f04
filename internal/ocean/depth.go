// Package ocean provides the seafloor depth field and bathymetry generation.
// Depths are positive meters below the still-water surface. Grids are indexed
// [row][col] where rows run along y and columns along x.
package ocean

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidGrid reports a depth grid that is empty, ragged, too small, or holds bad samples.
	ErrInvalidGrid = errors.New("ocean: invalid depth grid")
	// ErrInvalidCellSize reports a non-positive or non-finite cell size.
	ErrInvalidCellSize = errors.New("ocean: invalid cell size")
)

// DefaultShoreThreshold is the depth below which a point counts as shore.
const DefaultShoreThreshold = 0.3

// gradientStep is the central-difference step used by GradientAt.
const gradientStep = 0.1

// DepthField is an immutable grid of depth samples on a uniform square lattice.
type DepthField struct {
	grid     *mat.Dense
	rows     int
	cols     int
	cellSize float64
}

// NewDepthField builds a field from row-major samples. Every row must have the
// same length and the grid must be at least 2×2 so interpolation has a cell to work in.
func NewDepthField(samples [][]float64, cellSize float64) (*DepthField, error) {
	rows := len(samples)
	if rows == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidGrid)
	}
	cols := len(samples[0])
	data := make([]float64, 0, rows*cols)
	for r, row := range samples {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d samples, want %d", ErrInvalidGrid, r, len(row), cols)
		}
		data = append(data, row...)
	}
	if cols == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrInvalidGrid)
	}
	return NewDepthFieldFromDense(mat.NewDense(rows, cols, data), cellSize)
}

// NewDepthFieldFromDense wraps a copy of m as a depth field.
func NewDepthFieldFromDense(m *mat.Dense, cellSize float64) (*DepthField, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCellSize, cellSize)
	}
	if m == nil || m.IsEmpty() {
		return nil, fmt.Errorf("%w: empty matrix", ErrInvalidGrid)
	}
	rows, cols := m.Dims()
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("%w: need at least 2x2 samples, got %dx%d", ErrInvalidGrid, rows, cols)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := m.At(r, c)
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: sample (%d,%d) = %v", ErrInvalidGrid, r, c, v)
			}
		}
	}
	return &DepthField{
		grid:     mat.DenseCopyOf(m),
		rows:     rows,
		cols:     cols,
		cellSize: cellSize,
	}, nil
}

// DepthAt returns the bilinearly interpolated depth at (x, y) in meters.
// Points outside the grid interior are dry land and return 0.
func (d *DepthField) DepthAt(x, y float64) float64 {
	gx := x / d.cellSize
	gy := y / d.cellSize

	if !(gx >= 0 && gx < float64(d.cols-1) && gy >= 0 && gy < float64(d.rows-1)) {
		return 0
	}

	ix, iy := int(gx), int(gy)
	fx, fy := gx-float64(ix), gy-float64(iy)

	d00 := d.grid.At(iy, ix)
	d10 := d.grid.At(iy, ix+1)
	d01 := d.grid.At(iy+1, ix)
	d11 := d.grid.At(iy+1, ix+1)

	d0 := d00*(1-fx) + d10*fx
	d1 := d01*(1-fx) + d11*fx
	return d0*(1-fy) + d1*fy
}

// GradientAt estimates the depth gradient at (x, y) by central differences.
func (d *DepthField) GradientAt(x, y float64) (dx, dy float64) {
	h := gradientStep
	dx = (d.DepthAt(x+h, y) - d.DepthAt(x-h, y)) / (2 * h)
	dy = (d.DepthAt(x, y+h) - d.DepthAt(x, y-h)) / (2 * h)
	return dx, dy
}

// Dimensions returns the physical (width, height) of the field in meters.
func (d *DepthField) Dimensions() (width, height float64) {
	return float64(d.cols) * d.cellSize, float64(d.rows) * d.cellSize
}

// IsShore reports whether the water at (x, y) is shallower than threshold.
func (d *DepthField) IsShore(x, y, threshold float64) bool {
	return d.DepthAt(x, y) < threshold
}

// CellSize returns the grid spacing in meters.
func (d *DepthField) CellSize() float64 { return d.cellSize }

// Rows returns the number of sample rows (along y).
func (d *DepthField) Rows() int { return d.rows }

// Cols returns the number of sample columns (along x).
func (d *DepthField) Cols() int { return d.cols }

// Sample returns the raw depth sample at a grid index.
func (d *DepthField) Sample(row, col int) float64 {
	return d.grid.At(row, col)
}

// Samples returns a row-major copy of the grid.
func (d *DepthField) Samples() [][]float64 {
	out := make([][]float64, d.rows)
	for r := range out {
		out[r] = mat.Row(nil, r, d.grid)
	}
	return out
}

// Stats summarizes the depth distribution of the grid.
type Stats struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	DryFrac float64 `json:"dry_fraction"`
}

// Summary computes min/max/mean depth and the fraction of dry samples.
func (d *DepthField) Summary() Stats {
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	total := 0.0
	dry := 0
	for r := 0; r < d.rows; r++ {
		for c := 0; c < d.cols; c++ {
			v := d.grid.At(r, c)
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
			total += v
			if v == 0 {
				dry++
			}
		}
	}
	n := float64(d.rows * d.cols)
	s.Mean = total / n
	s.DryFrac = float64(dry) / n
	return s
}
