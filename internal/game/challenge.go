// Challenge resolution — converts skill, category, and chaos into win
// probabilities and samples winners. The zero-total guard in every
// normalization is load-bearing: a cast of all-zero skills must fall
// back to a uniform draw, never divide.
package game

import (
	"math/rand"
	"sort"
)

// PickCategory samples a challenge category from the configured
// distribution. Iteration is over sorted keys so the draw is stable
// under a fixed seed.
func PickCategory(rng *rand.Rand, dist map[string]float64) string {
	cats := make([]string, 0, len(dist))
	for c := range dist {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	total := 0.0
	for _, c := range cats {
		total += dist[c]
	}
	if total <= 0 {
		return cats[rng.Intn(len(cats))]
	}

	r := rng.Float64() * total
	for _, c := range cats {
		r -= dist[c]
		if r < 0 {
			return c
		}
	}
	return cats[len(cats)-1]
}

// strength blends category skill with uniform chance. chaos=0 is pure
// skill, chaos=1 pure chance.
func strength(rng *rand.Rand, skill, chaos float64) float64 {
	return (1-chaos)*skill + chaos*rng.Float64()
}

// weightedIndex samples an index proportional to weights. Returns a
// uniform index when the weights sum to zero.
func weightedIndex(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return rng.Intn(len(weights))
	}
	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}

// IndividualImmunity resolves an individual challenge among competitors
// and returns the winner. Never fails: an all-zero field resolves
// uniformly.
func IndividualImmunity(rng *rand.Rand, competitors []*Player, category string, chaos float64) *Player {
	if len(competitors) == 0 {
		return nil
	}
	weights := make([]float64, len(competitors))
	for i, p := range competitors {
		weights[i] = strength(rng, p.Profile.CategorySkill(category), chaos)
	}
	return competitors[weightedIndex(rng, weights)]
}

// TribalImmunity resolves a tribe-vs-tribe challenge and returns the
// winning tribe name. Tribe strength is the mean member skill for the
// category; tribal challenges run slightly hotter on chaos than
// individual ones. tribeNames fixes the evaluation order.
func TribalImmunity(rng *rand.Rand, tribeNames []string, members map[string][]*Player, category string, chaos float64) string {
	if len(tribeNames) == 0 {
		return ""
	}
	tribalChaos := chaos * 1.2
	if tribalChaos > 1 {
		tribalChaos = 1
	}

	weights := make([]float64, len(tribeNames))
	for i, name := range tribeNames {
		tribe := members[name]
		if len(tribe) == 0 {
			continue
		}
		sum := 0.0
		for _, p := range tribe {
			sum += p.Profile.CategorySkill(category)
		}
		weights[i] = strength(rng, sum/float64(len(tribe)), tribalChaos)
	}
	return tribeNames[weightedIndex(rng, weights)]
}

// RewardWinners fills k reward slots by weighted draw without
// replacement. Fewer competitors than slots returns everyone.
func RewardWinners(rng *rand.Rand, competitors []*Player, category string, chaos float64, k int) []*Player {
	if k >= len(competitors) {
		out := make([]*Player, len(competitors))
		copy(out, competitors)
		return out
	}

	pool := make([]*Player, len(competitors))
	copy(pool, competitors)
	weights := make([]float64, len(pool))
	for i, p := range pool {
		weights[i] = strength(rng, p.Profile.CategorySkill(category), chaos)
	}

	winners := make([]*Player, 0, k)
	for len(winners) < k {
		idx := weightedIndex(rng, weights)
		winners = append(winners, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
		weights = append(weights[:idx], weights[idx+1:]...)
	}
	return winners
}
