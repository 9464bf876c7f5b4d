// Named presets — the closed set of shipped configurations. Experiments
// pick a preset by name; ad-hoc parameter combinations go through Load.
package config

import (
	"fmt"
	"sort"
)

func presets() map[string]Config {
	base := Default()

	physical := base
	physical.ChallengeDistribution = map[string]float64{
		CategoryPhysical:  0.45,
		CategoryEndurance: 0.25,
		CategoryPrecision: 0.15,
		CategoryPuzzle:    0.10,
		CategoryMental:    0.03,
		CategoryWater:     0.02,
	}

	puzzle := base
	puzzle.ChallengeDistribution = map[string]float64{
		CategoryPhysical:  0.10,
		CategoryEndurance: 0.15,
		CategoryPrecision: 0.10,
		CategoryPuzzle:    0.50,
		CategoryMental:    0.10,
		CategoryWater:     0.05,
	}

	athletes := base
	athletes.ChallengeThreatWeight = 28.0
	athletes.StrategicThreatWeight = 8.0
	athletes.SocialThreatWeight = 6.0

	strategists := base
	strategists.ChallengeThreatWeight = 8.0
	strategists.StrategicThreatWeight = 28.0
	strategists.SocialThreatWeight = 6.0

	social := base
	social.ChallengeThreatWeight = 6.0
	social.StrategicThreatWeight = 8.0
	social.SocialThreatWeight = 28.0

	idolFest := base
	idolFest.TotalIdols = 20
	idolFest.IdolSearchProbability = 0.5

	noAdvantages := base
	noAdvantages.TotalIdols = 2
	noAdvantages.IdolSearchProbability = 0.1

	maxChaos := base
	maxChaos.ChaosFactor = 1.0

	predictable := base
	predictable.ChaosFactor = 0.1

	cutthroat := base
	cutthroat.AllianceLoyalty = 15.0

	loyal := base
	loyal.AllianceLoyalty = 55.0

	return map[string]Config{
		"default":            base,
		"physical_season":    physical,
		"puzzle_heavy":       puzzle,
		"target_athletes":    athletes,
		"target_strategists": strategists,
		"social_game":        social,
		"idol_fest":          idolFest,
		"no_advantages":      noAdvantages,
		"maximum_chaos":      maxChaos,
		"predictable":        predictable,
		"cutthroat":          cutthroat,
		"loyal_alliances":    loyal,
	}
}

// Preset returns a named configuration. The returned value has its own
// distribution map, so callers cannot alias preset state.
func Preset(name string) (Config, error) {
	all := presets()
	cfg, ok := all[name]
	if !ok {
		return Config{}, &Error{Field: "preset", Reason: fmt.Sprintf("unknown preset %q (available: %v)", name, PresetNames())}
	}
	dist := make(map[string]float64, len(cfg.ChallengeDistribution))
	for k, v := range cfg.ChallengeDistribution {
		dist[k] = v
	}
	cfg.ChallengeDistribution = dist
	return cfg, nil
}

// PresetNames lists all preset names sorted.
func PresetNames() []string {
	all := presets()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
