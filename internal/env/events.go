package env

import "time"

// EventKind names a notable transition within an episode.
type EventKind string

const (
	EventWaveZone      EventKind = "wave_zone"
	EventCatch         EventKind = "catch"
	EventStandUp       EventKind = "stand_up"
	EventStandUpFailed EventKind = "stand_up_failed"
	EventWipeout       EventKind = "wipeout"
	EventEscape        EventKind = "whitewash_escape"
	EventWaveLost      EventKind = "wave_lost"
	EventCollision     EventKind = "collision"
	EventOutOfBounds   EventKind = "out_of_bounds"
	EventTruncated     EventKind = "truncated"
)

// Event is one notable transition.
type Event struct {
	Step   int       `json:"step"`
	Kind   EventKind `json:"kind"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Detail string    `json:"detail,omitempty"`
}

// Info is the auxiliary per-step channel.
type Info struct {
	Episode   string  `json:"episode"`
	Step      int     `json:"step"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Mode      string  `json:"mode"`
	Swimming  bool    `json:"is_swimming"`
	Surfing   bool    `json:"is_surfing"`
	SurfTime  float64 `json:"total_surf_time"`
	WaveCount int     `json:"num_waves"`
}

// Summary aggregates one episode.
type Summary struct {
	Episode          string    `json:"episode"`
	Seed             int64     `json:"seed"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at,omitempty"`
	Steps            int       `json:"steps"`
	TotalReward      float64   `json:"total_reward"`
	SurfTime         float64   `json:"surf_time"`
	Catches          int       `json:"catches"`
	StandUps         int       `json:"stand_ups"`
	Wipeouts         int       `json:"wipeouts"`
	Escapes          int       `json:"escapes"`
	WavesSpawned     int       `json:"waves_spawned"`
	MaxShoreDistance float64   `json:"max_shore_distance"`
	ReachedWaveZone  bool      `json:"reached_wave_zone"`
	Reason           EventKind `json:"reason,omitempty"` // Collision, out of bounds or truncated; empty while running
}

// Done reports whether the episode has ended.
func (s Summary) Done() bool { return s.Reason != "" }
