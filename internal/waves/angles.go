package waves

import "math"

// NormalizeAngle wraps a into (-π, π].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// AngleDelta returns the signed shortest rotation from a to b, in (-π, π].
func AngleDelta(a, b float64) float64 {
	return NormalizeAngle(b - a)
}

// AngleDiff returns the unsigned shortest angular distance between a and b, in [0, π].
func AngleDiff(a, b float64) float64 {
	return math.Abs(AngleDelta(a, b))
}
