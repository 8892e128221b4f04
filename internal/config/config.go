// Package config loads surfsim settings from YAML. Embedded defaults are
// read first and a user file, if given, overrides only the keys it sets.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/talgya/surf-world/internal/env"
	"github.com/talgya/surf-world/internal/obstacles"
	"github.com/talgya/surf-world/internal/ocean"
	"github.com/talgya/surf-world/internal/surfer"
	"github.com/talgya/surf-world/internal/waves"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid reports a setting out of range.
var ErrInvalid = errors.New("config: invalid")

// Config is the full settings document.
type Config struct {
	Simulation  SimulationConfig  `yaml:"simulation"`
	Ocean       OceanConfig       `yaml:"ocean"`
	Waves       WavesConfig       `yaml:"waves"`
	Surfer      SurferConfig      `yaml:"surfer"`
	Obstacles   ObstaclesConfig   `yaml:"obstacles"`
	Rewards     RewardsConfig     `yaml:"rewards"`
	Observation ObservationConfig `yaml:"observation"`
	Episode     EpisodeConfig     `yaml:"episode"`
	Storage     StorageConfig     `yaml:"storage"`
	API         APIConfig         `yaml:"api"`
	Entropy     EntropyConfig     `yaml:"entropy"`
}

// SimulationConfig controls stepping, seeding and the baseline runner.
type SimulationConfig struct {
	DT              float64 `yaml:"dt"`
	MaxEpisodeSteps int     `yaml:"max_episode_steps"`
	Seed            int64   `yaml:"seed"` // 0 = fresh seed per episode
	Episodes        int     `yaml:"episodes"`
	Controller      string  `yaml:"controller"`
	IntervalMS      int     `yaml:"interval_ms"`
	Speed           float64 `yaml:"speed"`
}

// OceanConfig describes the domain and how its bathymetry is generated.
type OceanConfig struct {
	Width          float64 `yaml:"width"`
	Length         float64 `yaml:"length"`
	CellSize       float64 `yaml:"cell_size"`
	MaxDepth       float64 `yaml:"max_depth"`
	Profile        string  `yaml:"profile"`
	RampStart      float64 `yaml:"ramp_start"`
	RampEnd        float64 `yaml:"ramp_end"`
	NoiseSeed      int64   `yaml:"noise_seed"` // 0 = drawn once per run
	NoiseAmplitude float64 `yaml:"noise_amplitude"`
	NoiseFrequency float64 `yaml:"noise_frequency"`
	NoiseOctaves   int     `yaml:"noise_octaves"`
}

// WavesConfig sets wave spawning, growth and breaking.
type WavesConfig struct {
	Period             float64      `yaml:"period"`
	BaseHeight         float64      `yaml:"base_height"`
	MinHeightFactor    float64      `yaml:"min_height_factor"`
	MaxHeightFactor    float64      `yaml:"max_height_factor"`
	BreakingDepthRatio float64      `yaml:"breaking_depth_ratio"`
	BreakHeightFactor  float64      `yaml:"break_height_factor"`
	WhitewashDecay     float64      `yaml:"whitewash_decay"`
	RemovalHeight      float64      `yaml:"removal_height"`
	StraightWaves      bool         `yaml:"straight_waves"`
	MaxAngleDeg        float64      `yaml:"max_angle_deg"`
	FrontLengthRatio   float64      `yaml:"front_length_ratio"`
	InfluenceThickness float64      `yaml:"influence_thickness"`
	WaveZoneMin        float64      `yaml:"wave_zone_min"`
	WaveZoneMax        float64      `yaml:"wave_zone_max"`
	SpawnRatio         float64      `yaml:"spawn_ratio"`
	SmallSpawnRatio    float64      `yaml:"small_spawn_ratio"`
	SpeedPerPeriod     float64      `yaml:"speed_per_period"`
	SmallSpeedScale    float64      `yaml:"small_speed_scale"`
	SmallDomainLength  float64      `yaml:"small_domain_length"`
	BuildingTime       waves.Span   `yaml:"building_time"`
	FrontTime          waves.Span   `yaml:"front_time"`
	WhitewashTime      waves.Span   `yaml:"whitewash_time"`
	CarryTime          waves.Span   `yaml:"carry_time"`
	RefractionDepth    float64      `yaml:"refraction_depth"`
	RefractionRate     float64      `yaml:"refraction_rate"`
	PierRadius         float64      `yaml:"pier_radius"`
	Piers              [][2]float64 `yaml:"piers"`
}

// SurferConfig holds the surfer's physics and catch parameters.
type SurferConfig struct {
	Radius              float64 `yaml:"radius"`
	SwimSpeed           float64 `yaml:"swim_speed"`
	RotationStepDeg     float64 `yaml:"rotation_step_deg"`
	RotationDeadzone    float64 `yaml:"rotation_deadzone"`
	RotationScale       float64 `yaml:"rotation_scale"`
	DuckDiveDepth       float64 `yaml:"duck_dive_depth"`
	DuckDiveDuration    float64 `yaml:"duck_dive_duration"`
	DuckDiveDamping     float64 `yaml:"duck_dive_damping"`
	DiveSpeed           float64 `yaml:"dive_speed"`
	SurfaceSpeed        float64 `yaml:"surface_speed"`
	PushbackStrength    float64 `yaml:"pushback_strength"`
	DriftCoupling       float64 `yaml:"drift_coupling"`
	CarrySpeed          float64 `yaml:"carry_speed"`
	CarryLift           float64 `yaml:"carry_lift"`
	MaxCarryTime        float64 `yaml:"max_carry_time"`
	SurfLift            float64 `yaml:"surf_lift"`
	LateralSpeed        float64 `yaml:"lateral_speed"`
	LeanRollDeg         float64 `yaml:"lean_roll_deg"`
	CarveRollDeg        float64 `yaml:"carve_roll_deg"`
	RollResponse        float64 `yaml:"roll_response"`
	TurnRate            float64 `yaml:"turn_rate"`
	WhitewashPush       float64 `yaml:"whitewash_push"`
	WhitewashSink       float64 `yaml:"whitewash_sink"`
	Tumble              float64 `yaml:"tumble"`
	Gravity             float64 `yaml:"gravity"`
	Drag                float64 `yaml:"drag"`
	AngularDrag         float64 `yaml:"angular_drag"`
	MaxRollDeg          float64 `yaml:"max_roll_deg"`
	MaxPitchDeg         float64 `yaml:"max_pitch_deg"`
	FallMargin          float64 `yaml:"fall_margin"`
	CatchRadius         float64 `yaml:"catch_radius"`
	CatchToleranceDeg   float64 `yaml:"catch_tolerance_deg"`
	StandUpToleranceDeg float64 `yaml:"stand_up_tolerance_deg"`
	CatchMinSpeedRatio  float64 `yaml:"catch_min_speed_ratio"`
	CatchTarget         string  `yaml:"catch_target"`
}

// ObstaclesConfig sizes and places the obstacle swarm.
type ObstaclesConfig struct {
	Count      int     `yaml:"count"`
	MinDepth   float64 `yaml:"min_depth"`
	MaxDepth   float64 `yaml:"max_depth"`
	Speed      float64 `yaml:"speed"`
	Radius     float64 `yaml:"radius"`
	TurnChance float64 `yaml:"turn_chance"`
	DepthBand  float64 `yaml:"depth_band"`
}

// RewardsConfig weights the shaped reward terms.
type RewardsConfig struct {
	TimePenalty     float64 `yaml:"time_penalty"`
	AngleGood       float64 `yaml:"angle_good"`
	AnglePerfect    float64 `yaml:"angle_perfect"`
	PerfectAngleDeg float64 `yaml:"perfect_angle_deg"`
	ForwardProgress float64 `yaml:"forward_progress"`
	ReachWaveZone   float64 `yaml:"reach_wave_zone"`
	Catch           float64 `yaml:"catch"`
	Carried         float64 `yaml:"carried"`
	Surfing         float64 `yaml:"surfing"`
	SurfSpeed       float64 `yaml:"surf_speed"`
	DuckDiveTiming  float64 `yaml:"duck_dive_timing"`
	DuckDive        float64 `yaml:"duck_dive"`
	Whitewash       float64 `yaml:"whitewash"`
	Wipeout         float64 `yaml:"wipeout"`
	Collision       float64 `yaml:"collision"`
}

// ObservationConfig shapes the observation vector.
type ObservationConfig struct {
	AngleBlock     bool    `yaml:"angle_block"`
	NearWaveFactor float64 `yaml:"near_wave_factor"`
	NoWaveDistance float64 `yaml:"no_wave_distance"`
	ObstacleRange  float64 `yaml:"obstacle_range"`
}

// EpisodeConfig picks where episodes start and when waves are lost.
type EpisodeConfig struct {
	StartMinDepth   float64 `yaml:"start_min_depth"`
	StartMaxDepth   float64 `yaml:"start_max_depth"`
	StartSearchStep float64 `yaml:"start_search_step"`
	RideReach       float64 `yaml:"ride_reach"`
}

// StorageConfig locates the episode database.
type StorageConfig struct {
	Path string `yaml:"path"` // Empty disables recording
}

// APIConfig configures the read-only HTTP server.
type APIConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// EntropyConfig configures the random.org seed source.
type EntropyConfig struct {
	RandomOrgKey string `yaml:"random_org_key"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads the embedded defaults, overlays the file at path (if non-empty),
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets deployment secrets and ports come from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("RANDOM_ORG_API_KEY"); v != "" {
		c.Entropy.RandomOrgKey = v
	}
	if v := os.Getenv("SURFSIM_DB"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("SURFSIM_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.API.Port = n
		}
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.API.CORSOrigins = strings.Split(v, ",")
	}
}

// Validate checks the settings that config owns and then every component
// config it maps onto.
func (c *Config) Validate() error {
	switch {
	case c.Simulation.Episodes < 0:
		return fmt.Errorf("%w: simulation.episodes %d", ErrInvalid, c.Simulation.Episodes)
	case c.Simulation.Controller != "heuristic" && c.Simulation.Controller != "random":
		return fmt.Errorf("%w: simulation.controller %q", ErrInvalid, c.Simulation.Controller)
	case c.Simulation.IntervalMS < 0 || c.Simulation.Speed <= 0:
		return fmt.Errorf("%w: simulation pacing interval %dms speed %g",
			ErrInvalid, c.Simulation.IntervalMS, c.Simulation.Speed)
	case c.API.Enabled && (c.API.Port <= 0 || c.API.Port > 65535):
		return fmt.Errorf("%w: api.port %d", ErrInvalid, c.API.Port)
	}
	switch ocean.Profile(c.Ocean.Profile) {
	case ocean.ProfileSlope, ocean.ProfileBeach, ocean.ProfileNoise, ocean.ProfileRamp:
	default:
		return fmt.Errorf("%w: ocean.profile %q", ErrInvalid, c.Ocean.Profile)
	}
	if c.Ocean.Width <= 0 || c.Ocean.Length <= 0 || c.Ocean.CellSize <= 0 || c.Ocean.MaxDepth <= 0 {
		return fmt.Errorf("%w: ocean %gx%g m, cell %g, max depth %g",
			ErrInvalid, c.Ocean.Width, c.Ocean.Length, c.Ocean.CellSize, c.Ocean.MaxDepth)
	}
	if err := c.Env().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// OceanGen maps the ocean section onto a bathymetry generator config.
func (c *Config) OceanGen() ocean.GenConfig {
	o := c.Ocean
	return ocean.GenConfig{
		Width:          o.Width,
		Length:         o.Length,
		CellSize:       o.CellSize,
		MaxDepth:       o.MaxDepth,
		Profile:        ocean.Profile(o.Profile),
		RampStart:      o.RampStart,
		RampEnd:        o.RampEnd,
		Seed:           o.NoiseSeed,
		NoiseAmplitude: o.NoiseAmplitude,
		NoiseFrequency: o.NoiseFrequency,
		NoiseOctaves:   o.NoiseOctaves,
	}
}

// ResolveNoiseSeed fills Ocean.NoiseSeed from draw when the noise profile is
// selected and no seed is configured, and returns the seed in effect.
func (c *Config) ResolveNoiseSeed(draw func() int64) int64 {
	if c.Ocean.NoiseSeed == 0 && ocean.Profile(c.Ocean.Profile) == ocean.ProfileNoise {
		c.Ocean.NoiseSeed = draw()
	}
	return c.Ocean.NoiseSeed
}

// Env maps the document onto the environment's typed config.
func (c *Config) Env() env.Config {
	return env.Config{
		DT:              c.Simulation.DT,
		MaxEpisodeSteps: c.Simulation.MaxEpisodeSteps,
		AngleBlock:      c.Observation.AngleBlock,
		NearWaveFactor:  c.Observation.NearWaveFactor,
		NoWaveDistance:  c.Observation.NoWaveDistance,
		ObstacleRange:   c.Observation.ObstacleRange,
		StartMinDepth:   c.Episode.StartMinDepth,
		StartMaxDepth:   c.Episode.StartMaxDepth,
		StartSearchStep: c.Episode.StartSearchStep,
		RideReach:       c.Episode.RideReach,
		Waves:           c.wavesConfig(),
		Surfer:          c.surferConfig(),
		Obstacles:       obstacles.Config(c.Obstacles),
		Rewards:         c.rewards(),
	}
}

func (c *Config) wavesConfig() waves.Config {
	w := c.Waves
	piers := make([]mgl64.Vec2, len(w.Piers))
	for i, p := range w.Piers {
		piers[i] = mgl64.Vec2{p[0], p[1]}
	}
	return waves.Config{
		Period:             w.Period,
		BaseHeight:         w.BaseHeight,
		MinHeightFactor:    w.MinHeightFactor,
		MaxHeightFactor:    w.MaxHeightFactor,
		BreakingDepthRatio: w.BreakingDepthRatio,
		BreakHeightFactor:  w.BreakHeightFactor,
		WhitewashDecay:     w.WhitewashDecay,
		RemovalHeight:      w.RemovalHeight,
		StraightWaves:      w.StraightWaves,
		MaxAngle:           rad(w.MaxAngleDeg),
		FrontLengthRatio:   w.FrontLengthRatio,
		InfluenceThickness: w.InfluenceThickness,
		WaveZoneMin:        w.WaveZoneMin,
		WaveZoneMax:        w.WaveZoneMax,
		SpawnRatio:         w.SpawnRatio,
		SmallSpawnRatio:    w.SmallSpawnRatio,
		SpeedPerPeriod:     w.SpeedPerPeriod,
		SmallSpeedScale:    w.SmallSpeedScale,
		SmallDomainLength:  w.SmallDomainLength,
		BuildingTime:       w.BuildingTime,
		FrontTime:          w.FrontTime,
		WhitewashTime:      w.WhitewashTime,
		CarryTime:          w.CarryTime,
		RefractionDepth:    w.RefractionDepth,
		RefractionRate:     w.RefractionRate,
		PierRadius:         w.PierRadius,
		Piers:              piers,
	}
}

func (c *Config) surferConfig() surfer.Config {
	s := c.Surfer
	return surfer.Config{
		Radius:             s.Radius,
		SwimSpeed:          s.SwimSpeed,
		RotationStep:       rad(s.RotationStepDeg),
		RotationDeadzone:   s.RotationDeadzone,
		RotationScale:      s.RotationScale,
		DuckDiveDepth:      s.DuckDiveDepth,
		DuckDiveDuration:   s.DuckDiveDuration,
		DuckDiveDamping:    s.DuckDiveDamping,
		DiveSpeed:          s.DiveSpeed,
		SurfaceSpeed:       s.SurfaceSpeed,
		PushbackStrength:   s.PushbackStrength,
		DriftCoupling:      s.DriftCoupling,
		CarrySpeed:         s.CarrySpeed,
		CarryLift:          s.CarryLift,
		MaxCarryTime:       s.MaxCarryTime,
		SurfLift:           s.SurfLift,
		LateralSpeed:       s.LateralSpeed,
		LeanRoll:           rad(s.LeanRollDeg),
		CarveRoll:          rad(s.CarveRollDeg),
		RollResponse:       s.RollResponse,
		TurnRate:           s.TurnRate,
		WhitewashPush:      s.WhitewashPush,
		WhitewashSink:      s.WhitewashSink,
		Tumble:             s.Tumble,
		Gravity:            s.Gravity,
		Drag:               s.Drag,
		AngularDrag:        s.AngularDrag,
		MaxRoll:            rad(s.MaxRollDeg),
		MaxPitch:           rad(s.MaxPitchDeg),
		FallMargin:         s.FallMargin,
		CatchRadius:        s.CatchRadius,
		CatchTolerance:     rad(s.CatchToleranceDeg),
		StandUpTolerance:   rad(s.StandUpToleranceDeg),
		CatchMinSpeedRatio: s.CatchMinSpeedRatio,
		CatchTarget:        surfer.CatchTarget(s.CatchTarget),
	}
}

func (c *Config) rewards() env.Rewards {
	r := c.Rewards
	return env.Rewards{
		TimePenalty:     r.TimePenalty,
		AngleGood:       r.AngleGood,
		AnglePerfect:    r.AnglePerfect,
		PerfectAngle:    rad(r.PerfectAngleDeg),
		ForwardProgress: r.ForwardProgress,
		ReachWaveZone:   r.ReachWaveZone,
		Catch:           r.Catch,
		Carried:         r.Carried,
		Surfing:         r.Surfing,
		SurfSpeed:       r.SurfSpeed,
		DuckDiveTiming:  r.DuckDiveTiming,
		DuckDive:        r.DuckDive,
		Whitewash:       r.Whitewash,
		Wipeout:         r.Wipeout,
		Collision:       r.Collision,
	}
}

func rad(d float64) float64 { return d * math.Pi / 180 }

// WriteYAML saves the full document to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
