// Package persistence records finished episodes and their events in SQLite.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/surf-world/internal/env"
)

// DB wraps a SQLite connection for episode storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS episodes (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL,
		steps INTEGER NOT NULL,
		total_reward REAL NOT NULL,
		surf_time REAL NOT NULL,
		catches INTEGER NOT NULL,
		stand_ups INTEGER NOT NULL,
		wipeouts INTEGER NOT NULL,
		escapes INTEGER NOT NULL,
		waves_spawned INTEGER NOT NULL,
		max_shore_distance REAL NOT NULL,
		reached_wave_zone INTEGER NOT NULL,
		reason TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		episode_id TEXT NOT NULL REFERENCES episodes(id),
		step INTEGER NOT NULL,
		kind TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		detail TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_episode ON events(episode_id);
	CREATE INDEX IF NOT EXISTS idx_episodes_started ON episodes(started_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// episodeRow is the stored form of env.Summary.
type episodeRow struct {
	ID               string  `db:"id"`
	Seed             int64   `db:"seed"`
	StartedAt        int64   `db:"started_at"` // Unix milliseconds
	EndedAt          int64   `db:"ended_at"`
	Steps            int     `db:"steps"`
	TotalReward      float64 `db:"total_reward"`
	SurfTime         float64 `db:"surf_time"`
	Catches          int     `db:"catches"`
	StandUps         int     `db:"stand_ups"`
	Wipeouts         int     `db:"wipeouts"`
	Escapes          int     `db:"escapes"`
	WavesSpawned     int     `db:"waves_spawned"`
	MaxShoreDistance float64 `db:"max_shore_distance"`
	ReachedWaveZone  bool    `db:"reached_wave_zone"`
	Reason           string  `db:"reason"`
}

func toRow(s env.Summary) episodeRow {
	return episodeRow{
		ID:               s.Episode,
		Seed:             s.Seed,
		StartedAt:        s.StartedAt.UnixMilli(),
		EndedAt:          s.EndedAt.UnixMilli(),
		Steps:            s.Steps,
		TotalReward:      s.TotalReward,
		SurfTime:         s.SurfTime,
		Catches:          s.Catches,
		StandUps:         s.StandUps,
		Wipeouts:         s.Wipeouts,
		Escapes:          s.Escapes,
		WavesSpawned:     s.WavesSpawned,
		MaxShoreDistance: s.MaxShoreDistance,
		ReachedWaveZone:  s.ReachedWaveZone,
		Reason:           string(s.Reason),
	}
}

func (r episodeRow) summary() env.Summary {
	return env.Summary{
		Episode:          r.ID,
		Seed:             r.Seed,
		StartedAt:        time.UnixMilli(r.StartedAt).UTC(),
		EndedAt:          time.UnixMilli(r.EndedAt).UTC(),
		Steps:            r.Steps,
		TotalReward:      r.TotalReward,
		SurfTime:         r.SurfTime,
		Catches:          r.Catches,
		StandUps:         r.StandUps,
		Wipeouts:         r.Wipeouts,
		Escapes:          r.Escapes,
		WavesSpawned:     r.WavesSpawned,
		MaxShoreDistance: r.MaxShoreDistance,
		ReachedWaveZone:  r.ReachedWaveZone,
		Reason:           env.EventKind(r.Reason),
	}
}

// SaveEpisode writes one finished episode and its events in a single transaction.
func (db *DB) SaveEpisode(sum env.Summary, events []env.Event) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`INSERT OR REPLACE INTO episodes
		(id, seed, started_at, ended_at, steps, total_reward, surf_time, catches,
		 stand_ups, wipeouts, escapes, waves_spawned, max_shore_distance,
		 reached_wave_zone, reason)
		VALUES (:id, :seed, :started_at, :ended_at, :steps, :total_reward, :surf_time, :catches,
		 :stand_ups, :wipeouts, :escapes, :waves_spawned, :max_shore_distance,
		 :reached_wave_zone, :reason)`, toRow(sum))
	if err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM events WHERE episode_id = ?", sum.Episode); err != nil {
		return err
	}
	stmt, err := tx.Preparex(`INSERT INTO events (episode_id, step, kind, x, y, detail)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(sum.Episode, e.Step, string(e.Kind), e.X, e.Y, e.Detail); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("episode saved", "episode", sum.Episode, "events", len(events))
	return nil
}

// RecentEpisodes returns up to limit episodes, newest first.
func (db *DB) RecentEpisodes(limit int) ([]env.Summary, error) {
	var rows []episodeRow
	err := db.conn.Select(&rows,
		"SELECT * FROM episodes ORDER BY started_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	out := make([]env.Summary, len(rows))
	for i, r := range rows {
		out[i] = r.summary()
	}
	return out, nil
}

// Episode looks up one episode by ID.
func (db *DB) Episode(id string) (env.Summary, error) {
	var r episodeRow
	if err := db.conn.Get(&r, "SELECT * FROM episodes WHERE id = ?", id); err != nil {
		return env.Summary{}, err
	}
	return r.summary(), nil
}

// EpisodeEvents returns an episode's events in step order.
func (db *DB) EpisodeEvents(id string) ([]env.Event, error) {
	var events []env.Event
	err := db.conn.Select(&events,
		"SELECT step, kind, x, y, detail FROM events WHERE episode_id = ? ORDER BY id",
		id,
	)
	return events, err
}

// Totals aggregates every stored episode.
type Totals struct {
	Episodes   int     `db:"episodes" json:"episodes"`
	Steps      int     `db:"steps" json:"steps"`
	MeanReward float64 `db:"mean_reward" json:"mean_reward"`
	BestReward float64 `db:"best_reward" json:"best_reward"`
	SurfTime   float64 `db:"surf_time" json:"surf_time"`
	Catches    int     `db:"catches" json:"catches"`
	Wipeouts   int     `db:"wipeouts" json:"wipeouts"`
	Collisions int     `db:"collisions" json:"collisions"`
}

// Totals returns aggregates over all stored episodes.
func (db *DB) Totals() (Totals, error) {
	var t Totals
	err := db.conn.Get(&t, `SELECT
		COUNT(*) AS episodes,
		COALESCE(SUM(steps), 0) AS steps,
		COALESCE(AVG(total_reward), 0) AS mean_reward,
		COALESCE(MAX(total_reward), 0) AS best_reward,
		COALESCE(SUM(surf_time), 0) AS surf_time,
		COALESCE(SUM(catches), 0) AS catches,
		COALESCE(SUM(wipeouts), 0) AS wipeouts,
		COALESCE(SUM(CASE WHEN reason = ? THEN 1 ELSE 0 END), 0) AS collisions
		FROM episodes`, string(env.EventCollision))
	return t, err
}

// SaveMeta stores a key-value pair in run metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM run_meta WHERE key = ?", key)
	return value, err
}
