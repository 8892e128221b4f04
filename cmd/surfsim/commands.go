package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"

	"github.com/talgya/surf-world/internal/api"
	"github.com/talgya/surf-world/internal/config"
	"github.com/talgya/surf-world/internal/controller"
	"github.com/talgya/surf-world/internal/engine"
	"github.com/talgya/surf-world/internal/entropy"
	"github.com/talgya/surf-world/internal/env"
	"github.com/talgya/surf-world/internal/ocean"
	"github.com/talgya/surf-world/internal/persistence"
)

// session is everything a command needs to play episodes.
type session struct {
	cfg   *config.Config
	depth *ocean.DepthField
	env   *env.Env
	eng   *engine.Engine
	db    *persistence.DB
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildDepth(cfg *config.Config, seeds *entropy.Client) (*ocean.DepthField, error) {
	if seed := cfg.ResolveNoiseSeed(seeds.Seed); seed != 0 {
		slog.Info("bathymetry noise", "seed", seed)
	}
	depth, err := ocean.Generate(cfg.OceanGen())
	if err != nil {
		return nil, fmt.Errorf("generating bathymetry: %w", err)
	}
	rep := ocean.Validate(depth)
	for _, w := range rep.Warnings {
		slog.Warn("bathymetry", "warning", w)
	}
	if !rep.Valid {
		return nil, fmt.Errorf("bathymetry unusable: %s", strings.Join(rep.Errors, "; "))
	}
	return depth, nil
}

func newController(name string, e *env.Env, cfg env.Config, seed int64) (engine.Controller, error) {
	switch name {
	case "heuristic":
		return controller.NewHeuristic(e.SeawardHeading(), cfg.Surfer.CatchTolerance), nil
	case "random":
		return controller.NewRandom(seed), nil
	default:
		return nil, fmt.Errorf("%w: controller %q", config.ErrInvalid, name)
	}
}

// newSession builds the environment, controller and engine from cfg and
// opens the episode database when record is set.
func newSession(cfg *config.Config, record bool) (*session, error) {
	seeds := entropy.NewClient(cfg.Entropy.RandomOrgKey)
	depth, err := buildDepth(cfg, seeds)
	if err != nil {
		return nil, err
	}
	envCfg := cfg.Env()
	e, err := env.New(depth, envCfg)
	if err != nil {
		return nil, err
	}
	e.SetSeedSource(seeds.Seed)
	slog.Info("environment ready",
		"profile", ocean.ProfileName(cfg.OceanGen().Profile),
		"width", cfg.Ocean.Width,
		"length", cfg.Ocean.Length,
		"random_org", seeds.Enabled(),
	)

	ctrl, err := newController(cfg.Simulation.Controller, e, envCfg, cfg.Simulation.Seed)
	if err != nil {
		return nil, err
	}
	eng := engine.NewEngine(e, ctrl)
	eng.Seed = cfg.Simulation.Seed
	eng.Speed = cfg.Simulation.Speed

	s := &session{cfg: cfg, depth: depth, env: e, eng: eng}
	if record && cfg.Storage.Path != "" {
		if err := ensureDir(cfg.Storage.Path); err != nil {
			return nil, err
		}
		db, err := persistence.Open(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		slog.Info("database opened", "path", cfg.Storage.Path)
		s.db = db
		eng.OnEpisode = func(sum env.Summary, events []env.Event) {
			if err := db.SaveEpisode(sum, events); err != nil {
				slog.Error("saving episode failed", "episode", sum.Episode, "error", err)
			}
		}
		if err := db.SaveMeta("controller", cfg.Simulation.Controller); err != nil {
			slog.Warn("saving run metadata failed", "error", err)
		}
	}
	return s, nil
}

func (s *session) close() {
	if s.db != nil {
		s.db.Close()
	}
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("episodes") {
		cfg.Simulation.Episodes = c.Int("episodes")
	}
	if c.IsSet("controller") {
		cfg.Simulation.Controller = c.String("controller")
	}
	if c.IsSet("seed") {
		cfg.Simulation.Seed = c.Int64("seed")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s, err := newSession(cfg, !c.Bool("no-record"))
	if err != nil {
		return err
	}
	defer s.close()

	var sums []env.Summary
	onEpisode := s.eng.OnEpisode
	s.eng.OnEpisode = func(sum env.Summary, events []env.Event) {
		sums = append(sums, sum)
		if onEpisode != nil {
			onEpisode(sum, events)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	if err := s.eng.Run(ctx, cfg.Simulation.Episodes); err != nil {
		return err
	}
	printRunSummary(sums, s.eng.TotalSteps, time.Since(start))

	if s.db != nil {
		if err := s.db.SaveMeta("last_run", time.Now().UTC().Format(time.RFC3339)); err != nil {
			slog.Warn("saving run metadata failed", "error", err)
		}
	}
	return nil
}

func printRunSummary(sums []env.Summary, steps uint64, elapsed time.Duration) {
	if len(sums) == 0 {
		fmt.Println("no episodes finished")
		return
	}
	var reward, surf float64
	best := math.Inf(-1)
	var catches, wipeouts, collisions int
	for _, s := range sums {
		reward += s.TotalReward
		surf += s.SurfTime
		best = math.Max(best, s.TotalReward)
		catches += s.Catches
		wipeouts += s.Wipeouts
		if s.Reason == env.EventCollision {
			collisions++
		}
	}
	n := float64(len(sums))
	rate := float64(steps) / math.Max(elapsed.Seconds(), 1e-9)

	fmt.Printf("episodes:    %s\n", humanize.Comma(int64(len(sums))))
	fmt.Printf("steps:       %s (%s steps/s)\n", humanize.Comma(int64(steps)), humanize.Commaf(math.Round(rate)))
	fmt.Printf("mean reward: %s (best %s)\n", humanize.FtoaWithDigits(reward/n, 2), humanize.FtoaWithDigits(best, 2))
	fmt.Printf("surf time:   %ss total, %ss per episode\n", humanize.FtoaWithDigits(surf, 1), humanize.FtoaWithDigits(surf/n, 2))
	fmt.Printf("catches:     %s  wipeouts: %s  collisions: %s\n",
		humanize.Comma(int64(catches)), humanize.Comma(int64(wipeouts)), humanize.Comma(int64(collisions)))
	fmt.Printf("elapsed:     %s\n", elapsed.Round(time.Millisecond))
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		cfg.API.Port = c.Int("port")
	}
	if c.IsSet("speed") {
		cfg.Simulation.Speed = c.Float64("speed")
	}
	cfg.API.Enabled = true
	if err := cfg.Validate(); err != nil {
		return err
	}

	s, err := newSession(cfg, true)
	if err != nil {
		return err
	}
	defer s.close()
	s.eng.Interval = time.Duration(cfg.Simulation.IntervalMS) * time.Millisecond

	hub := api.NewHub()
	hub.Attach(s.eng)
	srv := &api.Server{
		Hub:     hub,
		Depth:   s.depth,
		DB:      s.db,
		Port:    cfg.API.Port,
		Origins: cfg.API.CORSOrigins,
	}

	ctx, cancel := signalContext()
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe(ctx)
		if err != nil {
			cancel()
		}
		errc <- err
	}()

	runErr := s.eng.Run(ctx, 0)
	cancel()
	if err := <-errc; err != nil {
		return errors.Join(runErr, fmt.Errorf("http server: %w", err))
	}
	return runErr
}

func depthAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	seed := cfg.ResolveNoiseSeed(entropy.NewClient(cfg.Entropy.RandomOrgKey).Seed)
	gen := cfg.OceanGen()
	depth, err := ocean.Generate(gen)
	if err != nil {
		return err
	}

	width, length := depth.Dimensions()
	st := depth.Summary()
	rep := ocean.Validate(depth)

	fmt.Printf("profile:   %s\n", ocean.ProfileName(gen.Profile))
	if gen.Profile == ocean.ProfileNoise {
		fmt.Printf("seed:      %d\n", seed)
	}
	fmt.Printf("domain:    %gm x %gm (%d x %d samples, cell %gm)\n", width, length, depth.Cols(), depth.Rows(), depth.CellSize())
	fmt.Printf("depth:     min %.2fm  mean %.2fm  max %.2fm  dry %.1f%%\n", st.Min, st.Mean, st.Max, st.DryFrac*100)
	fmt.Printf("valid:     %t\n", rep.Valid)
	for _, e := range rep.Errors {
		fmt.Printf("  error:   %s\n", e)
	}
	for _, w := range rep.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}

	fmt.Println()
	fmt.Println("         y    depth")
	const rows = 10
	x := width / 2
	for i := 0; i <= rows; i++ {
		y := length * float64(i) / rows
		d := depth.DepthAt(x, math.Min(y, length-1e-9))
		bar := strings.Repeat("#", int(math.Round(d/math.Max(st.Max, 1e-9)*30)))
		fmt.Printf("  %8.1fm  %6.2fm  %s\n", y, d, bar)
	}
	return nil
}

func episodesAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Storage.Path == "" {
		return errors.New("storage.path is empty; nothing is recorded")
	}
	db, err := persistence.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	eps, err := db.RecentEpisodes(c.Int("limit"))
	if err != nil {
		return err
	}
	for _, s := range eps {
		fmt.Printf("%s  %-14s  %6d steps  reward %9s  surf %6.2fs  catches %d  (%s)\n",
			shortID(s.Episode), s.Reason, s.Steps, humanize.FtoaWithDigits(s.TotalReward, 2),
			s.SurfTime, s.Catches, humanize.Time(s.EndedAt))
	}

	t, err := db.Totals()
	if err != nil {
		return err
	}
	fmt.Printf("\n%s episodes, %s steps, mean reward %.2f, best %.2f\n",
		humanize.Comma(int64(t.Episodes)), humanize.Comma(int64(t.Steps)), t.MeanReward, t.BestReward)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func configAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: surfsim config <path>", 2)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return cfg.WriteYAML(c.Args().First())
}
