// Package config holds the tunable parameters of a season simulation.
// A Config is validated once at construction and never mutated afterwards;
// every run of a season reads the same value.
package config

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Challenge categories. The distribution in a Config is keyed by these.
const (
	CategoryPhysical  = "physical"
	CategoryEndurance = "endurance"
	CategoryPrecision = "precision"
	CategoryPuzzle    = "puzzle"
	CategoryMental    = "mental"
	CategoryWater     = "water"
)

// Categories lists all challenge categories in a stable order.
func Categories() []string {
	return []string{
		CategoryPhysical,
		CategoryEndurance,
		CategoryPrecision,
		CategoryPuzzle,
		CategoryMental,
		CategoryWater,
	}
}

// distTolerance is the allowed deviation of the challenge distribution sum from 1.0.
const distTolerance = 0.01

// Config is the immutable parameter bundle for one simulation setup.
type Config struct {
	// ChallengeDistribution maps challenge category to its selection weight.
	// Weights must sum to 1.0 within tolerance.
	ChallengeDistribution map[string]float64 `yaml:"challenge_distribution" json:"challenge_distribution"`

	// Threat weights control how much each dimension contributes to a
	// candidate's vote score at tribal council.
	ChallengeThreatWeight float64 `yaml:"challenge_threat_weight" json:"challenge_threat_weight"`
	StrategicThreatWeight float64 `yaml:"strategic_threat_weight" json:"strategic_threat_weight"`
	SocialThreatWeight    float64 `yaml:"social_threat_weight" json:"social_threat_weight"`

	// Advantage supply and discovery odds.
	TotalIdols            int     `yaml:"total_idols" json:"total_idols"`
	IdolSearchProbability float64 `yaml:"idol_search_probability" json:"idol_search_probability"`

	// ChaosFactor blends skill-driven outcomes with uniform randomness.
	// 0 = fully deterministic by skill, 1 = pure chance.
	ChaosFactor float64 `yaml:"chaos_factor" json:"chaos_factor"`

	// AllianceLoyalty is the base magnitude of alliance-based vote
	// protection. Presets stay within 15-55.
	AllianceLoyalty float64 `yaml:"alliance_loyalty" json:"alliance_loyalty"`
}

// Error is a configuration validation failure. It is fatal to the
// configuration it describes but not to any other.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Default returns the baseline configuration used by the default preset.
func Default() Config {
	return Config{
		ChallengeDistribution: DefaultDistribution(),
		ChallengeThreatWeight: 16.0,
		StrategicThreatWeight: 16.0,
		SocialThreatWeight:    12.0,
		TotalIdols:            8,
		IdolSearchProbability: 0.3,
		ChaosFactor:           0.5,
		AllianceLoyalty:       35.0,
	}
}

// DefaultDistribution returns the standard challenge category mix.
func DefaultDistribution() map[string]float64 {
	return map[string]float64{
		CategoryPhysical:  0.25,
		CategoryEndurance: 0.20,
		CategoryPrecision: 0.15,
		CategoryPuzzle:    0.25,
		CategoryMental:    0.05,
		CategoryWater:     0.10,
	}
}

// Validate checks every field against its allowed range. It returns a
// *Error describing the first violation found.
func (c Config) Validate() error {
	if len(c.ChallengeDistribution) == 0 {
		return &Error{Field: "challenge_distribution", Reason: "must not be empty"}
	}
	sum := 0.0
	for _, cat := range sortedKeys(c.ChallengeDistribution) {
		w := c.ChallengeDistribution[cat]
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return &Error{Field: "challenge_distribution", Reason: fmt.Sprintf("%s weight is not finite", cat)}
		}
		if w < 0 {
			return &Error{Field: "challenge_distribution", Reason: fmt.Sprintf("%s weight %v is negative", cat, w)}
		}
		sum += w
	}
	if math.Abs(sum-1.0) > distTolerance {
		return &Error{Field: "challenge_distribution", Reason: fmt.Sprintf("weights sum to %.4f, must sum to 1.0 ±%.2f", sum, distTolerance)}
	}

	for _, w := range []struct {
		name string
		val  float64
	}{
		{"challenge_threat_weight", c.ChallengeThreatWeight},
		{"strategic_threat_weight", c.StrategicThreatWeight},
		{"social_threat_weight", c.SocialThreatWeight},
	} {
		if math.IsNaN(w.val) || math.IsInf(w.val, 0) {
			return &Error{Field: w.name, Reason: "must be finite"}
		}
		if w.val < 0 {
			return &Error{Field: w.name, Reason: fmt.Sprintf("%v is negative", w.val)}
		}
	}

	if c.TotalIdols < 0 || c.TotalIdols > 30 {
		return &Error{Field: "total_idols", Reason: fmt.Sprintf("%d outside 0-30", c.TotalIdols)}
	}
	if c.IdolSearchProbability < 0 || c.IdolSearchProbability > 1 || math.IsNaN(c.IdolSearchProbability) {
		return &Error{Field: "idol_search_probability", Reason: fmt.Sprintf("%v outside [0,1]", c.IdolSearchProbability)}
	}
	if c.ChaosFactor < 0 || c.ChaosFactor > 1 || math.IsNaN(c.ChaosFactor) {
		return &Error{Field: "chaos_factor", Reason: fmt.Sprintf("%v outside [0,1]", c.ChaosFactor)}
	}
	if c.AllianceLoyalty < 0 || c.AllianceLoyalty > 100 || math.IsNaN(c.AllianceLoyalty) {
		return &Error{Field: "alliance_loyalty", Reason: fmt.Sprintf("%v outside [0,100]", c.AllianceLoyalty)}
	}
	return nil
}

// Load reads a YAML config file, fills unset fields from Default, and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML.
func (c Config) Save(path string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config marshal: %w", err)
	}
	return os.WriteFile(path, raw, 0644)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
