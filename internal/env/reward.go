package env

import "github.com/talgya/surf-world/internal/surfer"

// stepFacts is what the reward looks at after a step.
type stepFacts struct {
	mode        surfer.Mode
	diving      bool
	nearWave    bool
	hasWave     bool
	headingErr  float64 // Ridden wave when attached, else nearest, radians
	seaward     float64 // Velocity component away from the beach
	speed       float64
	enteredZone bool
	caught      bool
	wipeout     bool
	collided    bool
}

// score sums the shaped terms for one step of length dt. catchTol is the
// heading tolerance that counts as a good angle.
func (r Rewards) score(f stepFacts, dt, catchTol float64) float64 {
	total := r.TimePenalty

	if f.hasWave && !f.diving && (f.mode == surfer.Swimming || f.mode == surfer.BeingCarried) {
		if f.headingErr <= catchTol {
			total += r.AngleGood * dt
		}
		if f.headingErr <= r.PerfectAngle {
			total += r.AnglePerfect * dt
		}
	}

	switch f.mode {
	case surfer.Swimming:
		if f.seaward > 0 && !f.diving {
			total += r.ForwardProgress * f.seaward * dt
		}
		if f.diving {
			total += r.DuckDive * dt
			if f.nearWave {
				total += r.DuckDiveTiming * dt
			}
		}
	case surfer.BeingCarried:
		total += r.Carried * dt
	case surfer.Surfing:
		total += r.Surfing*dt + r.SurfSpeed*f.speed*dt
	case surfer.WhitewashCarry:
		total += r.Whitewash * dt
	}

	if f.enteredZone {
		total += r.ReachWaveZone
	}
	if f.caught {
		total += r.Catch
	}
	if f.wipeout {
		total += r.Wipeout
	}
	if f.collided {
		total += r.Collision
	}
	return total
}
