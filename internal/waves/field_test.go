package waves

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/surf-world/internal/ocean"
)

const dt = 0.05

func rampField(t *testing.T) *ocean.DepthField {
	t.Helper()
	d, err := ocean.Generate(ocean.GenConfig{
		Width: 40, Length: 60, CellSize: 0.5, MaxDepth: 15,
		Profile: ocean.ProfileRamp, RampStart: 5, RampEnd: 50,
	})
	require.NoError(t, err)
	return d
}

func newField(t *testing.T, cfg Config, seed int64) *Field {
	t.Helper()
	f, err := NewField(rampField(t), cfg, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return f
}

func TestEmptyFieldDefaults(t *testing.T) {
	f := newField(t, DefaultConfig(), 1)

	assert.Equal(t, 0, f.Len())
	assert.Equal(t, 0.0, f.HeightAt(20, 30))
	vx, vy := f.VelocityAt(20, 30)
	assert.Equal(t, 0.0, vx)
	assert.Equal(t, 0.0, vy)
	_, _, ok := f.Nearest(20, 30)
	assert.False(t, ok)
	_, ok = f.Get(1)
	assert.False(t, ok)
}

func TestShoreDetection(t *testing.T) {
	south := newField(t, DefaultConfig(), 1)
	assert.Equal(t, ShoreSouth, south.Shore())
	assert.InDelta(t, -math.Pi/2, south.BaseAngle(), 1e-12)
	assert.Equal(t, 12.0, south.ShoreDistance(12))

	// Same ramp, authored upside down.
	samples := rampField(t).Samples()
	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
	flipped, err := ocean.NewDepthField(samples, 0.5)
	require.NoError(t, err)
	north, err := NewField(flipped, DefaultConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, ShoreNorth, north.Shore())
	assert.InDelta(t, math.Pi/2, north.BaseAngle(), 1e-12)
	assert.Equal(t, 48.0, north.ShoreDistance(12))

	cfg := DefaultConfig()
	cfg.StraightWaves = true
	north, err = NewField(flipped, cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	for north.Len() == 0 {
		north.Step(dt)
	}
	w := north.Waves()[0]
	assert.Less(t, w.Center.Y(), 30.0)
	assert.InDelta(t, math.Pi/2, w.Angle, 1e-9)
}

func TestNewFieldRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Period = 0
	_, err := NewField(rampField(t), cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.WhitewashDecay = 1
	_, err = NewField(rampField(t), cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewField(nil, DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSpawnsOncePerPeriod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Period = 2
	f := newField(t, cfg, 3)

	for i := 0; i < 39; i++ {
		f.Step(dt)
	}
	assert.Equal(t, 0, f.Stats().Spawned)
	for i := 0; i < 2; i++ {
		f.Step(dt)
	}
	assert.Equal(t, 1, f.Stats().Spawned)
	for i := 0; i < 30; i++ {
		f.Step(dt)
	}
	assert.Equal(t, 1, f.Stats().Spawned)
}

func TestPhaseMonotonicity(t *testing.T) {
	f := newField(t, DefaultConfig(), 11)

	lastHeight := map[ID]float64{}
	lastPhase := map[ID]Phase{}
	for i := 0; i < 4000; i++ {
		f.Step(dt)
		for _, w := range f.Waves() {
			prevPhase, seen := lastPhase[w.ID]
			if seen {
				require.GreaterOrEqual(t, int(w.Phase), int(prevPhase), "wave %d went backwards", w.ID)
				if prevPhase == w.Phase {
					switch w.Phase {
					case Building:
						require.GreaterOrEqual(t, w.Height, lastHeight[w.ID])
					case Front:
						require.Equal(t, w.MaxHeight, w.Height)
					case Whitewash:
						require.LessOrEqual(t, w.Height, lastHeight[w.ID])
					}
				}
			}
			require.LessOrEqual(t, w.Height, w.MaxHeight)
			lastHeight[w.ID] = w.Height
			lastPhase[w.ID] = w.Phase
		}
	}
	assert.Greater(t, f.Stats().Broken, 0)
}

func TestWaveCountStaysBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Period = 3
	f := newField(t, cfg, 5)

	peak := 0
	for i := 0; i < 20000; i++ {
		f.Step(dt)
		if n := f.Len(); n > peak {
			peak = n
		}
	}
	st := f.Stats()
	assert.Greater(t, st.Spawned, 300)
	// Longest lifetime is building + front + whitewash at the large end.
	lifetime := cfg.BuildingTime.Large + cfg.FrontTime.Large + cfg.WhitewashTime.Large
	assert.LessOrEqual(t, peak, int(math.Ceil(lifetime/cfg.Period))+1)
	assert.Equal(t, st.Spawned, st.RetiredShore+st.RetiredDecayed+st.RetiredOffside+f.Len())
}

func TestEveryWaveBreaksOrReachesShore(t *testing.T) {
	cfg := DefaultConfig()
	f := newField(t, cfg, 42)

	reasons := map[ID]RetireReason{}
	f.OnRetire = func(w Wave, reason RetireReason) {
		_, dup := reasons[w.ID]
		require.False(t, dup, "wave %d retired twice", w.ID)
		reasons[w.ID] = reason
	}
	whitewashed := map[ID]bool{}
	observe := func() {
		for _, w := range f.Waves() {
			if w.Phase == Whitewash {
				whitewashed[w.ID] = true
			}
		}
	}

	periods := int(math.Ceil(30/cfg.Period)) + 1
	steps := int(math.Round(float64(periods) * cfg.Period / dt))
	for i := 0; i < steps; i++ {
		f.Step(dt)
		observe()
	}
	created := f.Stats().Spawned
	assert.GreaterOrEqual(t, created, periods-1)

	for i := 0; i < int(60/dt); i++ {
		f.Step(dt)
		observe()
	}
	for id := ID(1); id <= ID(created); id++ {
		reason, gone := reasons[id]
		require.True(t, gone, "wave %d never retired", id)
		assert.True(t, whitewashed[id] || reason == RetiredShore, "wave %d retired %s without breaking", id, reason)
	}
}

func TestRetiredWavesAreInvisibleThenDropped(t *testing.T) {
	f := newField(t, DefaultConfig(), 1)
	w := &Wave{ID: 7, Center: mgl64.Vec2{20, 0.01}, HalfLength: 10, Angle: -math.Pi / 2,
		Height: 1, MaxHeight: 1, Speed: 4, Phase: Front, FrontDuration: 100}
	f.waves = append(f.waves, w)
	f.nextID = 8

	f.Step(dt)
	require.True(t, w.Retired)
	assert.Equal(t, 1, len(f.waves))
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, 0.0, f.HeightAt(20, 0.2))
	_, ok := f.Get(7)
	assert.False(t, ok)

	center := w.Center
	f.Step(dt)
	assert.Empty(t, f.waves)
	assert.Equal(t, center, w.Center)
}

func TestHeightAndVelocityFalloff(t *testing.T) {
	f := newField(t, DefaultConfig(), 1)
	f.waves = append(f.waves,
		&Wave{ID: 1, Center: mgl64.Vec2{20, 30}, HalfLength: 10, Angle: -math.Pi / 2, Height: 2, Speed: 4, Phase: Front},
		&Wave{ID: 2, Center: mgl64.Vec2{20, 31}, HalfLength: 10, Angle: -math.Pi / 2, Height: 1, Speed: 4, Phase: Whitewash},
	)

	// 1 m from the first (half strength), 0 m from the second.
	assert.InDelta(t, 2*0.5+1, f.HeightAt(20, 31), 1e-9)
	// Past both ends of the segments.
	assert.Equal(t, 0.0, f.HeightAt(35, 30))

	vx, vy := f.VelocityAt(20, 31)
	assert.InDelta(t, 0, vx, 1e-9)
	assert.InDelta(t, -(4*0.3*0.5 + 4*0.6), vy, 1e-9)
}

func TestNearestPrefersCoveringFront(t *testing.T) {
	f := newField(t, DefaultConfig(), 1)
	f.waves = append(f.waves,
		// Closest by raw distance to (5, 22) but does not span x=5.
		&Wave{ID: 1, Center: mgl64.Vec2{12, 22}, HalfLength: 5, Angle: -math.Pi / 2, Phase: Front},
		&Wave{ID: 2, Center: mgl64.Vec2{10, 35}, HalfLength: 10, Angle: -math.Pi / 2, Phase: Front},
		&Wave{ID: 3, Center: mgl64.Vec2{10, 28}, HalfLength: 10, Angle: -math.Pi / 2, Phase: Building},
	)
	w, dist, ok := f.Nearest(5, 22)
	require.True(t, ok)
	assert.Equal(t, ID(3), w.ID)
	assert.InDelta(t, 6, dist, 1e-9)

	w, dist, ok = f.Nearest(14, 23)
	require.True(t, ok)
	assert.Equal(t, ID(1), w.ID)
	assert.InDelta(t, 1, dist, 1e-9)

	// Nobody covers x=60: fall back to segment distance.
	w, dist, ok = f.Nearest(60, 20)
	require.True(t, ok)
	assert.Equal(t, ID(3), w.ID)
	assert.InDelta(t, math.Hypot(40, 8), dist, 1e-9)
}

func TestPierForcesBreak(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Piers = []mgl64.Vec2{{20, 40}}
	f := newField(t, cfg, 1)
	w := &Wave{ID: 1, Center: mgl64.Vec2{20, 41}, HalfLength: 10, Angle: -math.Pi / 2,
		Height: 2, MaxHeight: 2, Speed: 3, Phase: Front, FrontDuration: 100}
	f.waves = append(f.waves, w)

	f.Step(dt)
	assert.Equal(t, Whitewash, w.Phase)
	assert.InDelta(t, 2*cfg.BreakHeightFactor, w.Height, 1e-9)
	assert.Equal(t, 1, f.Stats().Broken)
}

func TestFrontBreaksInShallowWater(t *testing.T) {
	f := newField(t, DefaultConfig(), 1)
	// Depth at y=8 is 1 m; a 2 m wave exceeds 1.3× that.
	w := &Wave{ID: 1, Center: mgl64.Vec2{20, 8}, HalfLength: 10, Angle: -math.Pi / 2,
		Height: 2, MaxHeight: 2, Speed: 3, Phase: Front, FrontDuration: 100}
	f.waves = append(f.waves, w)

	f.Step(dt)
	assert.Equal(t, Whitewash, w.Phase)
}

func TestRefractionTurnsTowardShore(t *testing.T) {
	f := newField(t, DefaultConfig(), 1)
	w := &Wave{Center: mgl64.Vec2{20, 20}, Angle: -math.Pi/2 + 0.3}

	f.refract(w, 1)
	assert.InDelta(t, -math.Pi/2+0.2, w.Angle, 1e-6)
	for i := 0; i < 10; i++ {
		f.refract(w, 1)
	}
	assert.InDelta(t, -math.Pi/2, w.Angle, 1e-6)

	// Too deep to feel the bottom.
	deep := &Wave{Center: mgl64.Vec2{20, 55}, Angle: -math.Pi/2 + 0.3}
	f.refract(deep, 1)
	assert.Equal(t, -math.Pi/2+0.3, deep.Angle)
}

func TestInWaveZone(t *testing.T) {
	f := newField(t, DefaultConfig(), 1)
	assert.False(t, f.InWaveZone(20, 8))  // 1 m
	assert.True(t, f.InWaveZone(20, 20))  // 5 m
	assert.False(t, f.InWaveZone(20, 55)) // 15 m, band is exclusive
}

func TestResetReplaysWithSameSeed(t *testing.T) {
	f := newField(t, DefaultConfig(), 1)
	run := func() []Wave {
		for i := 0; i < 560; i++ {
			f.Step(dt)
		}
		return f.Waves()
	}

	f.Reset(rand.New(rand.NewSource(99)))
	first := run()
	require.NotEmpty(t, first)

	f.Reset(rand.New(rand.NewSource(99)))
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, 0.0, f.Time())
	assert.Equal(t, Stats{}, f.Stats())
	assert.Equal(t, first, run())
}
