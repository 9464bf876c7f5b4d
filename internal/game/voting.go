// Tribal-council voting. Each voter independently scores the visible
// threats and casts a weighted-random vote; the plurality goes home,
// after idol nullification and tie revotes are honored. Scores are
// bounded below, so the weighted draws can never hit a zero-total
// distribution with a live candidate pool.
package game

import (
	"math/rand"
	"sort"

	"github.com/talgya/tribesim/internal/config"
)

// winnerPenalty is the flat score added for prior champions. It is
// deliberately larger than any single threat-weight term so former
// winners are priority targets in every preset.
const winnerPenalty = 25.0

// Bonus shaping for the normalized composite threat: big threats above
// the cutoff get pushed, obvious goats below the floor get dragged to
// the end as easy finals opponents.
const (
	highThreatCutoff = 0.65
	highThreatScale  = 8.0
	goatCutoff       = 0.35
	goatScale        = 4.0
)

// minScore keeps every candidate's weight positive.
const minScore = 0.1

// Council resolves one tribal council.
type Council struct {
	Cfg       config.Config
	Alliances []*Alliance

	// PreMerge flips the challenge-threat term: strong players protect
	// their tribe before the merge and threaten everyone after it.
	PreMerge bool

	// Remaining is the count of living players going into the council,
	// which drives idol-play aggressiveness.
	Remaining int

	// Compat returns mean compatibility of a candidate with the named
	// voters.
	Compat func(candidate string, voters []string) float64
}

// CouncilResult records one council's outcome.
type CouncilResult struct {
	Votes      map[string]string // voter → target, final round
	Tally      map[string]int    // post-nullification tally
	IdolPlays  []string          // players who played an idol
	Revote     bool
	RevotePool []string // tied candidates, when a revote happened
	Eliminated string
}

// VoteScore computes the score one voter assigns to a candidate. Higher
// means more likely to be targeted. Finite and bounded for any valid
// profile.
func (c *Council) VoteScore(rng *rand.Rand, voter, cand *Player, voterNames []string) float64 {
	p := cand.Profile
	score := 0.0

	// Challenge threat is context dependent: an asset pre-merge, a
	// liability after.
	if c.PreMerge {
		score -= p.ChallengeWinProb * c.Cfg.ChallengeThreatWeight
	} else {
		score += p.ChallengeWinProb * c.Cfg.ChallengeThreatWeight
	}

	score += p.StrategicScore * c.Cfg.StrategicThreatWeight

	// Social threat is a composite signal. Historical jury success alone
	// would score most of the cast as zero threat; blending in vote
	// accuracy, influence, and voter compatibility keeps every player
	// meaningfully differentiated.
	social := 0.10*p.JuryTendency +
		0.30*p.VoteAccuracy +
		0.40*p.Influence +
		0.20*c.Compat(cand.Name, voterNames)
	score += social * c.Cfg.SocialThreatWeight

	// Normalized composite drives the extremes: push the obvious
	// threats, spare the goats — post-merge only.
	if !c.PreMerge {
		composite := 0.25*p.ChallengeWinProb + 0.30*p.StrategicScore +
			0.25*p.JuryTendency + 0.20*p.Influence
		if composite > highThreatCutoff {
			score += (composite - highThreatCutoff) * highThreatScale
		} else if composite < goatCutoff {
			score -= (goatCutoff - composite) * goatScale
		}
	}

	if p.PriorWinner {
		score += winnerPenalty
	}

	if SharedAlliance(c.Alliances, voter.Name, cand.Name) {
		loyalty := c.Cfg.AllianceLoyalty
		spread := loyalty * 0.3
		base := loyalty - spread + rng.Float64()*2*spread
		accuracyBonus := p.VoteAccuracy * 15
		score -= base + accuracyBonus
	}

	score += (rng.Float64()*60 - 30) * c.Cfg.ChaosFactor
	if rng.Float64() < 0.15 {
		score += rng.Float64()*50 - 25
	}

	if score < minScore {
		score = minScore
	}
	return score
}

// selectTarget picks one voter's target by weighted draw over the
// candidate scores. The voter never targets themselves.
func (c *Council) selectTarget(rng *rand.Rand, voter *Player, candidates []*Player, voterNames []string) string {
	var pool []*Player
	for _, cand := range candidates {
		if cand.Name == voter.Name || !cand.Alive || cand.Immune {
			continue
		}
		pool = append(pool, cand)
	}
	if len(pool) == 0 {
		return ""
	}
	weights := make([]float64, len(pool))
	for i, cand := range pool {
		weights[i] = c.VoteScore(rng, voter, cand, voterNames)
	}
	return pool[weightedIndex(rng, weights)].Name
}

// castRound runs one voting round and returns votes plus the tally.
// Voter order must already be deterministic (season passes players in
// name order).
func (c *Council) castRound(rng *rand.Rand, voters, candidates []*Player) (map[string]string, map[string]int) {
	voterNames := Names(voters)
	votes := make(map[string]string, len(voters))
	tally := make(map[string]int)
	for _, v := range voters {
		target := c.selectTarget(rng, v, candidates, voterNames)
		if target == "" {
			continue
		}
		votes[v.Name] = target
		tally[target]++
	}
	return votes, tally
}

// topOfTally returns the candidates tied for the most votes, sorted by
// name.
func topOfTally(tally map[string]int) []string {
	max := 0
	for _, n := range tally {
		if n > max {
			max = n
		}
	}
	var top []string
	for name, n := range tally {
		if n == max && max > 0 {
			top = append(top, name)
		}
	}
	sort.Strings(top)
	return top
}

// Run resolves the council: first vote, idol nullification, plurality,
// and a restricted revote on a tie. Exactly one candidate is eliminated.
func (c *Council) Run(rng *rand.Rand, voters, candidates []*Player) CouncilResult {
	res := CouncilResult{}
	res.Votes, res.Tally = c.castRound(rng, voters, candidates)

	byName := make(map[string]*Player, len(candidates))
	for _, cand := range candidates {
		byName[cand.Name] = cand
	}

	// Idol decision: the would-be boot may nullify the votes against
	// them before the outcome is read.
	if top := topOfTally(res.Tally); len(top) > 0 {
		target := byName[top[0]]
		if target != nil && ShouldPlayIdol(rng, target, res.Tally[target.Name], len(res.Votes), c.Remaining) {
			target.unplayedIdol().Played = true
			res.IdolPlays = append(res.IdolPlays, target.Name)
			delete(res.Tally, target.Name)

			if len(res.Tally) == 0 {
				// Every vote landed on the idol player: the vote
				// re-opens to the remaining candidates.
				var remaining []*Player
				for _, cand := range candidates {
					if cand.Name != target.Name {
						remaining = append(remaining, cand)
					}
				}
				if len(remaining) == 0 {
					res.Eliminated = ""
					return res
				}
				res.Votes, res.Tally = c.castRound(rng, voters, remaining)
			}
		}
	}

	top := topOfTally(res.Tally)
	switch len(top) {
	case 0:
		// Degenerate: no votes at all. Uniform among candidates.
		res.Eliminated = candidates[rng.Intn(len(candidates))].Name
		return res
	case 1:
		res.Eliminated = top[0]
		return res
	}

	// Tie: revote restricted to the tied candidates; the tied players
	// do not vote.
	res.Revote = true
	res.RevotePool = top

	tiedSet := make(map[string]bool, len(top))
	var tiedPlayers []*Player
	for _, name := range top {
		tiedSet[name] = true
		if p := byName[name]; p != nil {
			tiedPlayers = append(tiedPlayers, p)
		}
	}
	var revoters []*Player
	for _, v := range voters {
		if !tiedSet[v.Name] {
			revoters = append(revoters, v)
		}
	}

	if len(revoters) > 0 {
		_, retally := c.castRound(rng, revoters, tiedPlayers)
		if retop := topOfTally(retally); len(retop) == 1 {
			res.Tally = retally
			res.Eliminated = retop[0]
			return res
		}
	}

	// Revote deadlocked (or there was nobody left to revote): uniform
	// draw among the tied, deterministic under the council's seed.
	res.Eliminated = top[rng.Intn(len(top))]
	return res
}
