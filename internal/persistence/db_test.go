package persistence

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/surf-world/internal/env"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "surfsim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func summary(id string, start time.Time, reward float64, reason env.EventKind) env.Summary {
	return env.Summary{
		Episode:          id,
		Seed:             7,
		StartedAt:        start,
		EndedAt:          start.Add(30 * time.Second),
		Steps:            600,
		TotalReward:      reward,
		SurfTime:         4.5,
		Catches:          2,
		StandUps:         1,
		Wipeouts:         1,
		Escapes:          1,
		WavesSpawned:     4,
		MaxShoreDistance: 48.25,
		ReachedWaveZone:  true,
		Reason:           reason,
	}
}

func TestSaveAndLoadEpisode(t *testing.T) {
	db := openTemp(t)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sum := summary("ep-1", start, 61.5, env.EventTruncated)
	events := []env.Event{
		{Step: 40, Kind: env.EventWaveZone, X: 25, Y: 31},
		{Step: 212, Kind: env.EventCatch, X: 25, Y: 52, Detail: "wave 2"},
		{Step: 600, Kind: env.EventTruncated, X: 20, Y: 12},
	}
	require.NoError(t, db.SaveEpisode(sum, events))

	got, err := db.Episode("ep-1")
	require.NoError(t, err)
	assert.Equal(t, sum, got)

	gotEvents, err := db.EpisodeEvents("ep-1")
	require.NoError(t, err)
	assert.Equal(t, events, gotEvents)
}

func TestSaveEpisodeReplacesEvents(t *testing.T) {
	db := openTemp(t)
	sum := summary("ep-1", time.Now().UTC(), 1, env.EventCollision)
	require.NoError(t, db.SaveEpisode(sum, []env.Event{{Step: 1, Kind: env.EventCatch}, {Step: 2, Kind: env.EventCollision}}))
	require.NoError(t, db.SaveEpisode(sum, []env.Event{{Step: 2, Kind: env.EventCollision}}))

	events, err := db.EpisodeEvents("ep-1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestRecentEpisodesNewestFirst(t *testing.T) {
	db := openTemp(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, db.SaveEpisode(summary(id, base.Add(time.Duration(i)*time.Minute), float64(i), env.EventTruncated), nil))
	}

	got, err := db.RecentEpisodes(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Episode)
	assert.Equal(t, "b", got[1].Episode)
}

func TestMissingEpisode(t *testing.T) {
	db := openTemp(t)
	_, err := db.Episode("nope")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	events, err := db.EpisodeEvents("nope")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestTotals(t *testing.T) {
	db := openTemp(t)
	empty, err := db.Totals()
	require.NoError(t, err)
	assert.Zero(t, empty.Episodes)

	now := time.Now().UTC()
	require.NoError(t, db.SaveEpisode(summary("a", now, 10, env.EventCollision), nil))
	require.NoError(t, db.SaveEpisode(summary("b", now, 30, env.EventTruncated), nil))

	tot, err := db.Totals()
	require.NoError(t, err)
	assert.Equal(t, 2, tot.Episodes)
	assert.Equal(t, 1200, tot.Steps)
	assert.InDelta(t, 20.0, tot.MeanReward, 1e-9)
	assert.InDelta(t, 30.0, tot.BestReward, 1e-9)
	assert.Equal(t, 4, tot.Catches)
	assert.Equal(t, 1, tot.Collisions)
}

func TestMeta(t *testing.T) {
	db := openTemp(t)
	_, err := db.GetMeta("config_hash")
	assert.Error(t, err)

	require.NoError(t, db.SaveMeta("config_hash", "abc"))
	require.NoError(t, db.SaveMeta("config_hash", "def"))
	v, err := db.GetMeta("config_hash")
	require.NoError(t, err)
	assert.Equal(t, "def", v)
}
