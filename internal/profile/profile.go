// Package profile holds the static per-player feature vectors the
// simulation reads. Profiles are prepared upstream from historical data;
// this package validates them at load time and treats every field as
// guaranteed-valid afterwards. A profile with a missing or non-finite
// feature is rejected outright, never defaulted.
package profile

import (
	"fmt"
	"math"
)

// Profile is one player's feature vector. All probability-like fields
// are in [0,1]. Read-only during a run.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// ChallengeWinProb is the overall challenge skill, used when no
	// category sub-skill is available.
	ChallengeWinProb float64 `json:"challenge_win_prob"`

	// CategoryScores holds optional per-category challenge sub-skills
	// keyed by category name (physical, endurance, precision, puzzle,
	// mental, water). Missing categories fall back to ChallengeWinProb.
	CategoryScores map[string]float64 `json:"challenge_categories,omitempty"`

	// StrategicScore measures outwit ability: vote reading, plan making.
	StrategicScore float64 `json:"strategic_score"`

	// JuryTendency is the historical rate of drawing jury votes at a
	// final tribal council.
	JuryTendency float64 `json:"jury_tendency"`

	// VoteAccuracy is how often the player lands on the right side of a
	// vote.
	VoteAccuracy float64 `json:"vote_accuracy"`

	// Influence is social power: ability to steer a voting bloc.
	Influence float64 `json:"influence"`

	// IdolFindProb is the per-episode base chance of turning up an
	// advantage while searching.
	IdolFindProb float64 `json:"idol_find_prob"`

	PriorWinner bool `json:"prior_winner"`
	TimesPlayed int  `json:"times_played"`
}

// DataError reports an invalid player feature. It is fatal to the
// profile set being loaded.
type DataError struct {
	Player string
	Field  string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("profile %q: %s: %s", e.Player, e.Field, e.Reason)
}

// Validate checks that every feature is finite and within range.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return &DataError{Player: p.ID, Field: "name", Reason: "empty"}
	}
	fields := []struct {
		name string
		val  float64
	}{
		{"challenge_win_prob", p.ChallengeWinProb},
		{"strategic_score", p.StrategicScore},
		{"jury_tendency", p.JuryTendency},
		{"vote_accuracy", p.VoteAccuracy},
		{"influence", p.Influence},
		{"idol_find_prob", p.IdolFindProb},
	}
	for _, f := range fields {
		if err := checkUnit(p.Name, f.name, f.val); err != nil {
			return err
		}
	}
	for cat, v := range p.CategoryScores {
		if err := checkUnit(p.Name, "challenge_categories."+cat, v); err != nil {
			return err
		}
	}
	if p.TimesPlayed < 0 {
		return &DataError{Player: p.Name, Field: "times_played", Reason: fmt.Sprintf("%d is negative", p.TimesPlayed)}
	}
	return nil
}

func checkUnit(player, field string, v float64) error {
	if math.IsNaN(v) {
		return &DataError{Player: player, Field: field, Reason: "NaN"}
	}
	if math.IsInf(v, 0) {
		return &DataError{Player: player, Field: field, Reason: "infinite"}
	}
	if v < 0 || v > 1 {
		return &DataError{Player: player, Field: field, Reason: fmt.Sprintf("%v outside [0,1]", v)}
	}
	return nil
}

// CategorySkill returns the player's skill for a challenge category,
// falling back to the overall challenge win probability when no
// sub-skill was recorded.
func (p *Profile) CategorySkill(category string) float64 {
	if s, ok := p.CategoryScores[category]; ok {
		return s
	}
	return p.ChallengeWinProb
}
