// Command surfsim runs the surf environment with a baseline controller,
// records episodes and optionally serves live state over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli"
)

func main() {
	app := makeApp()
	if err := app.Run(os.Args); err != nil {
		slog.Error("surfsim failed", "error", err)
		os.Exit(1)
	}
}

func makeApp() *cli.App {
	app := cli.NewApp()
	app.Name = "surfsim"
	app.Usage = "2D surf simulation environment"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Value: envOrDefault("SURFSIM_CONFIG", ""), Usage: "YAML config overlaid on the built-in defaults"},
		cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
	}
	app.Before = func(c *cli.Context) error {
		level := slog.LevelInfo
		if c.GlobalBool("debug") {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
		return nil
	}

	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "Play episodes with a baseline controller and record them",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "episodes, n", Usage: "Number of episodes (overrides simulation.episodes)"},
				cli.StringFlag{Name: "controller", Usage: "heuristic or random (overrides simulation.controller)"},
				cli.Int64Flag{Name: "seed", Usage: "Base seed; episode n uses seed+n (overrides simulation.seed)"},
				cli.BoolFlag{Name: "no-record", Usage: "Do not write episodes to the database"},
			},
			Action: runAction,
		},
		{
			Name:  "serve",
			Usage: "Run continuously with pacing and serve live state over HTTP",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "port", Usage: "HTTP port (overrides api.port)"},
				cli.Float64Flag{Name: "speed", Usage: "Pacing multiplier (overrides simulation.speed)"},
			},
			Action: serveAction,
		},
		{
			Name:   "depth",
			Usage:  "Print a summary of the configured bathymetry",
			Action: depthAction,
		},
		{
			Name:  "episodes",
			Usage: "List recorded episodes",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "limit", Value: 10, Usage: "How many to show"},
			},
			Action: episodesAction,
		},
		{
			Name:      "config",
			Usage:     "Write the effective configuration as YAML",
			ArgsUsage: "<path>",
			Action:    configAction,
		},
	}
	return app
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
