package obstacles

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSwarm(t *testing.T, cfg Config, seed int64) *Field {
	t.Helper()
	f, err := New(40, 60, cfg, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return f
}

// place swaps in a hand-built swarm.
func place(f *Field, obs ...Obstacle) {
	f.items = f.items[:0]
	for i := range obs {
		o := obs[i]
		f.items = append(f.items, &o)
	}
	f.reindex()
}

func TestSpawnStaysInBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 50
	cfg.Speed = 3
	cfg.TurnChance = 0.2
	f := newSwarm(t, cfg, 2)
	f.Spawn(nil)
	require.Equal(t, 50, f.Len())

	for _, o := range f.Obstacles() {
		assert.GreaterOrEqual(t, o.Depth, cfg.MinDepth)
		assert.LessOrEqual(t, o.Depth, cfg.MaxDepth)
		assert.InDelta(t, cfg.Speed, math.Hypot(o.VX, o.VY), 1e-9)
	}

	for i := 0; i < 2000; i++ {
		f.Update(0.05)
		for _, o := range f.Obstacles() {
			require.GreaterOrEqual(t, o.X, 0.0)
			require.LessOrEqual(t, o.X, 40.0)
			require.GreaterOrEqual(t, o.Y, 0.0)
			require.LessOrEqual(t, o.Y, 60.0)
		}
	}
}

func TestReflection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TurnChance = 0
	f := newSwarm(t, cfg, 1)
	place(f, Obstacle{X: 39.99, Y: 0.01, Depth: 1, VX: 1, VY: -1, Radius: 0.3})

	f.Update(0.05)
	o := f.Obstacles()[0]
	assert.Equal(t, 40.0, o.X)
	assert.Equal(t, 0.0, o.Y)
	assert.Equal(t, -1.0, o.VX)
	assert.Equal(t, 1.0, o.VY)
}

func TestSpawnIsDeterministic(t *testing.T) {
	a := newSwarm(t, DefaultConfig(), 1)
	b := newSwarm(t, DefaultConfig(), 1)
	a.Spawn(rand.New(rand.NewSource(77)))
	b.Spawn(rand.New(rand.NewSource(77)))
	assert.Equal(t, a.Obstacles(), b.Obstacles())
}

func TestCheckCollision(t *testing.T) {
	f := newSwarm(t, DefaultConfig(), 1)
	place(f,
		Obstacle{X: 10, Y: 10, Depth: 0.5, Radius: 0.3},
		Obstacle{X: 30, Y: 30, Depth: 2.5, Radius: 0.3},
	)

	assert.True(t, f.CheckCollision(10.5, 10, 0, 0.5))
	assert.False(t, f.CheckCollision(10.9, 10, 0, 0.5), "outside combined radius")
	assert.False(t, f.CheckCollision(30, 30, 0, 0.5), "too deep to touch a surface swimmer")
	assert.True(t, f.CheckCollision(30, 30, -1.8, 0.5), "duck diving reaches it")
	assert.False(t, f.CheckCollision(20, 20, 0, 0.5))
}

func TestNearestVector(t *testing.T) {
	f := newSwarm(t, DefaultConfig(), 1)

	dx, dy, d := f.NearestVector(5, 5, 10)
	assert.Equal(t, [3]float64{0, 0, 10}, [3]float64{dx, dy, d}, "empty swarm sentinel")

	place(f,
		Obstacle{X: 8, Y: 9, Depth: 1, Radius: 0.3},
		Obstacle{X: 5, Y: 2, Depth: 1, Radius: 0.3},
		Obstacle{X: 30, Y: 30, Depth: 1, Radius: 0.3},
	)
	dx, dy, d = f.NearestVector(5, 5, 10)
	assert.InDelta(t, 0, dx, 1e-12)
	assert.InDelta(t, -3, dy, 1e-12)
	assert.InDelta(t, 3, d, 1e-12)

	dx, dy, d = f.NearestVector(20, 45, 10)
	assert.Equal(t, [3]float64{0, 0, 10}, [3]float64{dx, dy, d}, "out of range sentinel")
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	bad := DefaultConfig()
	bad.MaxDepth = 0.1
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)
	_, err := New(0, 10, DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
