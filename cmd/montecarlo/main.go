// Command montecarlo runs a batch of seasons and prints aggregate
// per-player odds. Results can be stored in SQLite and the raw runs
// archived as compressed JSON lines.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/tribesim/internal/castgen"
	"github.com/talgya/tribesim/internal/config"
	"github.com/talgya/tribesim/internal/entropy"
	"github.com/talgya/tribesim/internal/montecarlo"
	"github.com/talgya/tribesim/internal/persistence"
	"github.com/talgya/tribesim/internal/profile"
	"github.com/talgya/tribesim/internal/season"
)

func main() {
	var (
		presetName  = flag.String("preset", "default", "configuration preset")
		configPath  = flag.String("config", "", "YAML config file (overrides -preset)")
		castPath    = flag.String("cast", "", "cast JSON file; omit to generate one")
		castSize    = flag.Int("cast-size", 24, "generated cast size")
		castSeed    = flag.Int64("cast-seed", 1, "generated cast seed")
		runs        = flag.Int("runs", 10000, "number of seasons")
		seed        = flag.Int64("seed", 0, "batch seed (0 = fresh entropy)")
		workers     = flag.Int("workers", 0, "worker count (0 = GOMAXPROCS)")
		dbPath      = flag.String("db", "", "SQLite file to store the batch in")
		archivePath = flag.String("archive", "", "write every run to this zstd JSONL file")
		top         = flag.Int("top", 10, "players to print")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := loadConfig(*presetName, *configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	store, err := loadStore(*castPath, *castSize, *castSeed)
	if err != nil {
		slog.Error("cast", "error", err)
		os.Exit(1)
	}
	if *seed == 0 {
		*seed = entropy.BaseSeed()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := montecarlo.Options{
		Cfg:     cfg,
		Store:   store,
		Runs:    *runs,
		Seed:    *seed,
		Workers: *workers,
	}

	var archive *persistence.Archive
	if *archivePath != "" {
		archive, err = persistence.CreateArchive(*archivePath)
		if err != nil {
			slog.Error("archive", "error", err)
			os.Exit(1)
		}
		opts.Record = func(run int, res *season.Result) {
			if err := archive.Append(run, res); err != nil {
				slog.Error("archive append failed", "run", run, "error", err)
			}
		}
	}

	slog.Info("batch starting", "preset", *presetName, "runs", *runs, "seed", *seed, "players", store.Size())
	start := time.Now()
	stats, err := montecarlo.Run(ctx, opts)
	if err != nil && stats == nil {
		slog.Error("batch", "error", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)
	if err != nil {
		slog.Warn("batch interrupted", "completed", stats.Runs)
	}

	if archive != nil {
		if err := archive.Close(); err != nil {
			slog.Error("archive close failed", "error", err)
		} else {
			slog.Info("runs archived", "path", *archivePath)
		}
	}

	if *dbPath != "" {
		db, err := persistence.Open(*dbPath)
		if err != nil {
			slog.Error("db open failed", "error", err)
		} else {
			defer db.Close()
			if id, err := db.SaveBatch(*presetName, *seed, stats); err != nil {
				slog.Error("db save failed", "error", err)
			} else {
				slog.Info("batch stored", "id", id, "path", *dbPath)
			}
		}
	}

	printStats(stats, *top, elapsed)
}

func loadConfig(preset, path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.Preset(preset)
}

func loadStore(path string, size int, seed int64) (*profile.Store, error) {
	if path != "" {
		return profile.LoadCast(path)
	}
	return castgen.Generate(size, seed)
}

func printStats(stats *montecarlo.Stats, top int, elapsed time.Duration) {
	fmt.Printf("\n%d seasons in %s (%d failed), avg %.1f days each\n\n",
		stats.Runs, elapsed.Round(time.Millisecond), stats.Failures, stats.AvgSeasonDays)

	fmt.Printf("%-22s %7s %7s %7s %7s %8s\n",
		"player", "win", "final3", "merge", "boot1", "avg place")
	if top > len(stats.Players) {
		top = len(stats.Players)
	}
	for _, p := range stats.Players[:top] {
		fmt.Printf("%-22s %6.2f%% %6.2f%% %6.2f%% %6.2f%% %9.2f\n",
			p.Name, p.WinProb*100, p.FinalistProb*100,
			p.MergeProb*100, p.FirstBootProb*100, p.AvgPlacement)
	}
}
