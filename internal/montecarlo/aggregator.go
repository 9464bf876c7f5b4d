// Package montecarlo runs many independent season simulations across a
// worker pool and aggregates per-player outcome statistics. Counters
// are summed per worker and merged at the end, so results do not depend
// on scheduling order.
package montecarlo

import (
	"sort"

	"github.com/talgya/tribesim/internal/season"
)

// accumulator holds raw outcome counts for one worker. All fields are
// plain sums, so merging accumulators is commutative.
type accumulator struct {
	castSize int
	runs     int

	wins          map[string]int
	finalist      map[string]int
	madeMerge     map[string]int
	firstBoot     map[string]int
	placementSum  map[string]int
	placementHist map[string][]int
	challengeWins map[string]int
	juryCount     map[string]int
	juryVotesWon  map[string]int
	daysSum       int
}

func newAccumulator(names []string) *accumulator {
	a := &accumulator{
		castSize:      len(names),
		wins:          make(map[string]int, len(names)),
		finalist:      make(map[string]int, len(names)),
		madeMerge:     make(map[string]int, len(names)),
		firstBoot:     make(map[string]int, len(names)),
		placementSum:  make(map[string]int, len(names)),
		placementHist: make(map[string][]int, len(names)),
		challengeWins: make(map[string]int, len(names)),
		juryCount:     make(map[string]int, len(names)),
		juryVotesWon:  make(map[string]int, len(names)),
	}
	for _, name := range names {
		a.placementHist[name] = make([]int, len(names))
	}
	return a
}

func (a *accumulator) add(res *season.Result) {
	a.runs++
	a.daysSum += res.TotalDays
	a.wins[res.Winner]++

	for name, place := range res.Placements {
		a.placementSum[name] += place
		if place >= 1 && place <= a.castSize {
			a.placementHist[name][place-1]++
		}
		if place <= 3 {
			a.finalist[name]++
		}
		if place <= res.MergeSize {
			a.madeMerge[name]++
		}
		if place == a.castSize {
			a.firstBoot[name]++
		}
	}
	for name, n := range res.ChallengeWins {
		a.challengeWins[name] += n
	}
	for _, name := range res.Jury {
		a.juryCount[name]++
	}
	for name, n := range res.JuryVotes {
		a.juryVotesWon[name] += n
	}
}

func (a *accumulator) merge(other *accumulator) {
	a.runs += other.runs
	a.daysSum += other.daysSum
	mergeCounts(a.wins, other.wins)
	mergeCounts(a.finalist, other.finalist)
	mergeCounts(a.madeMerge, other.madeMerge)
	mergeCounts(a.firstBoot, other.firstBoot)
	mergeCounts(a.placementSum, other.placementSum)
	mergeCounts(a.challengeWins, other.challengeWins)
	mergeCounts(a.juryCount, other.juryCount)
	mergeCounts(a.juryVotesWon, other.juryVotesWon)
	for name, hist := range other.placementHist {
		dst := a.placementHist[name]
		for i, n := range hist {
			dst[i] += n
		}
	}
}

func mergeCounts(dst, src map[string]int) {
	for k, v := range src {
		dst[k] += v
	}
}

// PlayerStats is one player's aggregate outcome over the successful
// runs of a batch.
type PlayerStats struct {
	Name             string  `json:"name"`
	WinProb          float64 `json:"win_prob"`
	FinalistProb     float64 `json:"finalist_prob"`
	MergeProb        float64 `json:"merge_prob"`
	FirstBootProb    float64 `json:"first_boot_prob"`
	JuryProb         float64 `json:"jury_prob"`
	AvgPlacement     float64 `json:"avg_placement"`
	AvgChallengeWins float64 `json:"avg_challenge_wins"`
	AvgJuryVotes     float64 `json:"avg_jury_votes"`
	PlacementHist    []int   `json:"placement_hist"`
}

// Stats is the aggregate outcome of one batch.
type Stats struct {
	Runs     int `json:"runs"`     // successful runs
	Failures int `json:"failures"` // runs that errored or panicked

	AvgSeasonDays float64 `json:"avg_season_days"`

	// Players is sorted by win probability descending, name ascending
	// on ties.
	Players []PlayerStats `json:"players"`
}

// stats finalizes the accumulated counts into probabilities.
func (a *accumulator) stats(names []string, failures int) *Stats {
	s := &Stats{Runs: a.runs, Failures: failures}
	if a.runs == 0 {
		return s
	}
	n := float64(a.runs)
	s.AvgSeasonDays = float64(a.daysSum) / n

	for _, name := range names {
		s.Players = append(s.Players, PlayerStats{
			Name:             name,
			WinProb:          float64(a.wins[name]) / n,
			FinalistProb:     float64(a.finalist[name]) / n,
			MergeProb:        float64(a.madeMerge[name]) / n,
			FirstBootProb:    float64(a.firstBoot[name]) / n,
			JuryProb:         float64(a.juryCount[name]) / n,
			AvgPlacement:     float64(a.placementSum[name]) / n,
			AvgChallengeWins: float64(a.challengeWins[name]) / n,
			AvgJuryVotes:     float64(a.juryVotesWon[name]) / n,
			PlacementHist:    a.placementHist[name],
		})
	}
	sort.Slice(s.Players, func(i, j int) bool {
		if s.Players[i].WinProb != s.Players[j].WinProb {
			return s.Players[i].WinProb > s.Players[j].WinProb
		}
		return s.Players[i].Name < s.Players[j].Name
	})
	return s
}
