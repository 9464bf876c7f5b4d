// Command seasonsim plays a single season and narrates it episode by
// episode.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/talgya/tribesim/internal/castgen"
	"github.com/talgya/tribesim/internal/config"
	"github.com/talgya/tribesim/internal/entropy"
	"github.com/talgya/tribesim/internal/profile"
	"github.com/talgya/tribesim/internal/season"
)

func main() {
	var (
		presetName = flag.String("preset", "default", "configuration preset")
		configPath = flag.String("config", "", "YAML config file (overrides -preset)")
		castPath   = flag.String("cast", "", "cast JSON file; omit to generate one")
		castSize   = flag.Int("cast-size", 24, "generated cast size")
		castSeed   = flag.Int64("cast-seed", 1, "generated cast seed")
		seed       = flag.Int64("seed", 0, "season seed (0 = fresh entropy)")
		asJSON     = flag.Bool("json", false, "emit the full result as JSON")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

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
	slog.Info("season starting", "players", store.Size(), "seed", *seed)

	s, err := season.New(cfg, store, entropy.Stream(*seed, 0))
	if err != nil {
		slog.Error("setup", "error", err)
		os.Exit(1)
	}
	res, err := s.Run()
	if err != nil {
		slog.Error("season", "error", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			slog.Error("encode", "error", err)
			os.Exit(1)
		}
		return
	}
	narrate(res, store)
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

func narrate(res *season.Result, store *profile.Store) {
	for _, ep := range res.Episodes {
		fmt.Printf("── Episode %d (day %d, %s) ──\n", ep.Number, ep.Day, ep.Phase)
		fmt.Printf("  %s challenge [%s], won by %s\n", ep.ChallengeType, ep.Category, ep.Winner)
		for _, name := range ep.IdolsFound {
			fmt.Printf("  %s found an advantage\n", name)
		}
		for _, name := range ep.IdolsPlayed {
			fmt.Printf("  %s played a hidden immunity idol!\n", name)
		}
		if ep.Revote {
			fmt.Println("  deadlocked vote went to a revote")
		}
		if ep.FireMaking != nil {
			fmt.Printf("  %s was brought to the end; %s beat %s at fire\n",
				ep.FireMaking.Chosen, ep.FireMaking.Winner, ep.FireMaking.Loser)
		}
		if ep.Eliminated != "" {
			arch := strings.Join(profile.Archetypes(store.Get(ep.Eliminated)), ", ")
			fmt.Printf("  voted out: %s (%s)\n", ep.Eliminated, arch)
		} else {
			fmt.Println("  nobody went home")
		}
	}

	fmt.Printf("\nFinal tribal council: %s\n", strings.Join(res.Finalists, ", "))
	for _, name := range res.Finalists {
		fmt.Printf("  %s: %d jury votes\n", name, res.JuryVotes[name])
	}
	fmt.Printf("\nSole Survivor after %d days: %s\n", res.TotalDays, res.Winner)
}
