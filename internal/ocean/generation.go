// Bathymetry generation: analytic beach profiles, optionally roughened with
// layered simplex noise for sand bars and reef bumps.
package ocean

import (
	"fmt"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/mat"
)

// Profile selects the cross-shore depth curve.
type Profile string

const (
	ProfileSlope Profile = "slope" // Linear ramp from the beach to MaxDepth
	ProfileBeach Profile = "beach" // Sand, shallows, wave zone, then deep water
	ProfileNoise Profile = "noise" // Beach profile roughened with simplex noise
	ProfileRamp  Profile = "ramp"  // Dry until RampStart, linear to MaxDepth at RampEnd
)

// GenConfig holds bathymetry generation parameters. The beach is always on the
// y=0 edge; deep water is at y=Length.
type GenConfig struct {
	Width    float64 // Cross-shore extent along x, meters
	Length   float64 // Shore-to-sea extent along y, meters
	CellSize float64 // Grid spacing, meters
	MaxDepth float64 // Depth at the far edge, meters
	Profile  Profile

	RampStart float64 // ProfileRamp: last dry y
	RampEnd   float64 // ProfileRamp: y where MaxDepth is reached

	Seed           int64   // Noise seed; the caller picks a fresh one when it wants variety
	NoiseAmplitude float64 // Peak noise displacement, meters
	NoiseFrequency float64 // Base noise frequency, cycles per meter
	NoiseOctaves   int
}

// DefaultGenConfig returns a medium beach suitable for training runs.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:          50,
		Length:         100,
		CellSize:       0.5,
		MaxDepth:       15,
		Profile:        ProfileBeach,
		RampStart:      5,
		RampEnd:        50,
		NoiseAmplitude: 1.2,
		NoiseFrequency: 0.04,
		NoiseOctaves:   3,
	}
}

// Generate builds a depth field from cfg.
func Generate(cfg GenConfig) (*DepthField, error) {
	if cfg.CellSize <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCellSize, cfg.CellSize)
	}
	cols := int(cfg.Width / cfg.CellSize)
	rows := int(cfg.Length / cfg.CellSize)
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("%w: %gx%g m at %g m cells is too small", ErrInvalidGrid, cfg.Width, cfg.Length, cfg.CellSize)
	}

	var depthFor func(y float64) float64
	switch cfg.Profile {
	case ProfileSlope:
		depthFor = func(y float64) float64 { return y / cfg.Length * cfg.MaxDepth }
	case ProfileBeach, ProfileNoise, "":
		depthFor = func(y float64) float64 { return beachDepth(y/cfg.Length, cfg.MaxDepth) }
	case ProfileRamp:
		if cfg.RampEnd <= cfg.RampStart {
			return nil, fmt.Errorf("%w: ramp end %g must exceed ramp start %g", ErrInvalidGrid, cfg.RampEnd, cfg.RampStart)
		}
		depthFor = func(y float64) float64 { return rampDepth(y, cfg.RampStart, cfg.RampEnd, cfg.MaxDepth) }
	default:
		return nil, fmt.Errorf("%w: unknown profile %q", ErrInvalidGrid, cfg.Profile)
	}

	data := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		base := depthFor(float64(r) * cfg.CellSize)
		for c := 0; c < cols; c++ {
			data[r*cols+c] = base
		}
	}

	if cfg.Profile == ProfileNoise {
		roughen(data, rows, cols, cfg)
	}

	return NewDepthFieldFromDense(mat.NewDense(rows, cols, data), cfg.CellSize)
}

// beachDepth is the piecewise cross-shore profile: sand for the first 15%,
// shallows to 1.5 m by 25%, a wave zone to 5 m by 50%, then deep water.
func beachDepth(f, maxDepth float64) float64 {
	switch {
	case f < 0.15:
		return 0
	case f < 0.25:
		return (f - 0.15) / 0.10 * 1.5
	case f < 0.50:
		return 1.5 + (f-0.25)/0.25*3.5
	default:
		deep := 5 + (f-0.50)/0.50*10.0
		return deep * maxDepth / 15
	}
}

func rampDepth(y, start, end, maxDepth float64) float64 {
	switch {
	case y < start:
		return 0
	case y >= end:
		return maxDepth
	default:
		return (y - start) / (end - start) * maxDepth
	}
}

// roughen perturbs wet samples with layered simplex noise. Dry sand stays dry
// and the perturbation fades in over the first few meters so the shallows
// keep a usable start band.
func roughen(data []float64, rows, cols int, cfg GenConfig) {
	noise := opensimplex.NewNormalized(cfg.Seed)
	octaves := cfg.NoiseOctaves
	if octaves < 1 {
		octaves = 1
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			base := data[i]
			if base <= 0 {
				continue
			}
			x := float64(c) * cfg.CellSize
			y := float64(r) * cfg.CellSize
			n := octaveNoise(noise, x, y, octaves, cfg.NoiseFrequency, 0.5)
			fade := math.Min(1, base/5)
			data[i] = math.Max(0, base+(n-0.5)*2*cfg.NoiseAmplitude*fade)
		}
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// ProfileName returns a human-readable name for a profile.
func ProfileName(p Profile) string {
	switch p {
	case ProfileSlope:
		return "Slope"
	case ProfileBeach, "":
		return "Beach"
	case ProfileNoise:
		return "Noisy beach"
	case ProfileRamp:
		return "Ramp"
	default:
		return "Unknown"
	}
}
