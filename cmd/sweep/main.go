// Command sweep runs the same cast through every configuration preset
// and compares how the outcome distribution shifts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/talgya/tribesim/internal/castgen"
	"github.com/talgya/tribesim/internal/config"
	"github.com/talgya/tribesim/internal/entropy"
	"github.com/talgya/tribesim/internal/montecarlo"
	"github.com/talgya/tribesim/internal/persistence"
)

func main() {
	var (
		runs     = flag.Int("runs", 2000, "seasons per preset")
		seed     = flag.Int64("seed", 0, "base seed (0 = fresh entropy)")
		castSize = flag.Int("cast-size", 24, "generated cast size")
		castSeed = flag.Int64("cast-seed", 1, "generated cast seed")
		workers  = flag.Int("workers", 0, "worker count (0 = GOMAXPROCS)")
		dbPath   = flag.String("db", "", "sqlite file to store each preset's aggregate")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	store, err := castgen.Generate(*castSize, *castSeed)
	if err != nil {
		slog.Error("cast", "error", err)
		os.Exit(1)
	}
	if *seed == 0 {
		*seed = entropy.BaseSeed()
	}

	var db *persistence.DB
	if *dbPath != "" {
		if db, err = persistence.Open(*dbPath); err != nil {
			slog.Error("database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("sweeping %d presets, %d runs each, cast of %d, seed %d\n\n",
		len(config.PresetNames()), *runs, store.Size(), *seed)
	fmt.Printf("%-18s %-22s %7s %9s %9s\n",
		"preset", "favorite", "win", "spread", "entropy")

	for i, name := range config.PresetNames() {
		cfg, err := config.Preset(name)
		if err != nil {
			continue
		}
		stats, err := montecarlo.Run(ctx, montecarlo.Options{
			Cfg:     cfg,
			Store:   store,
			Runs:    *runs,
			Seed:    entropy.Derive(*seed, i),
			Workers: *workers,
		})
		if err != nil {
			slog.Error("preset interrupted", "preset", name, "error", err)
			os.Exit(1)
		}
		if db != nil {
			if _, err := db.SaveBatch(name, entropy.Derive(*seed, i), stats); err != nil {
				slog.Error("save failed", "preset", name, "error", err)
			}
		}
		fav := stats.Players[0]
		fmt.Printf("%-18s %-22s %6.2f%% %9.4f %9.3f\n",
			name, fav.Name, fav.WinProb*100,
			fav.WinProb-stats.Players[len(stats.Players)-1].WinProb,
			winEntropy(stats))
	}
}

// winEntropy is the Shannon entropy of the win distribution in bits.
// Higher means chaos is doing its job: a pure-chance preset approaches
// log2(castSize), a deterministic one approaches zero.
func winEntropy(stats *montecarlo.Stats) float64 {
	h := 0.0
	for _, p := range stats.Players {
		if p.WinProb > 0 {
			h -= p.WinProb * math.Log2(p.WinProb)
		}
	}
	return h
}
