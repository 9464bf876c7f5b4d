// Advantage-item lifecycle: discovery while the supply lasts, and the
// decision model for playing an idol defensively at tribal council.
package game

import (
	"math/rand"

	"github.com/talgya/tribesim/internal/profile"
)

// AdvantageKind enumerates the discoverable items.
type AdvantageKind int

const (
	KindIdol AdvantageKind = iota
	KindExtraVote
	KindStealVote
	KindBlockVote
)

func (k AdvantageKind) String() string {
	switch k {
	case KindIdol:
		return "hidden_immunity_idol"
	case KindExtraVote:
		return "extra_vote"
	case KindStealVote:
		return "vote_steal"
	case KindBlockVote:
		return "vote_block"
	}
	return "unknown"
}

// Advantage is a discovered item. Only idols have a play effect at
// council; the rest are held for narrative completeness.
type Advantage struct {
	Kind   AdvantageKind
	Owner  string
	Played bool
}

// kindWeights is the discovery distribution; idols are most common.
var kindWeights = []struct {
	kind   AdvantageKind
	weight float64
}{
	{KindIdol, 0.55},
	{KindExtraVote, 0.25},
	{KindStealVote, 0.15},
	{KindBlockVote, 0.05},
}

// searchVariance spreads individual search rolls around the base odds.
const searchVariance = 0.3

// AttemptSearch rolls one player's idol hunt. Returns the found
// advantage or nil. Callers decrement the supply on success.
func AttemptSearch(rng *rand.Rand, p *Player, available int) *Advantage {
	if available <= 0 {
		return nil
	}

	baseProb := p.Profile.IdolFindProb
	strategicBonus := p.Profile.StrategicScore * 0.04
	factor := 1 - searchVariance + rng.Float64()*2*searchVariance
	findProb := (baseProb + strategicBonus) * factor

	if rng.Float64() >= findProb {
		return nil
	}

	r := rng.Float64()
	for _, kw := range kindWeights {
		r -= kw.weight
		if r < 0 {
			return &Advantage{Kind: kw.kind, Owner: p.Name}
		}
	}
	return &Advantage{Kind: KindIdol, Owner: p.Name}
}

// ShouldPlayIdol decides whether a player facing votes plays their idol.
// The thresholds shift with game phase: holders sit on idols pre-merge
// and burn them readily near the end, since an idol kept past final five
// is worthless.
func ShouldPlayIdol(rng *rand.Rand, p *Player, votesAgainst, totalVotes, remaining int) bool {
	if p.unplayedIdol() == nil {
		return false
	}

	danger := 0.0
	if totalVotes > 0 {
		danger = float64(votesAgainst) / float64(totalVotes)
	}
	threatFactor := profile.ThreatLevel(p.Profile) / 100
	readAccuracy := p.Profile.StrategicScore*0.3 + (rng.Float64()-0.5)*0.2

	var threshold, modifier float64
	switch {
	case remaining > 13:
		threshold, modifier = 0.55, -0.15
	case remaining > 7:
		threshold, modifier = 0.40, -0.05
	case remaining > 5:
		threshold, modifier = 0.30, 0.05
	default:
		threshold, modifier = 0.20, 0.15
	}

	perceived := danger + threatFactor*0.2 + readAccuracy + modifier
	return perceived > threshold+(rng.Float64()-0.5)*0.2
}
