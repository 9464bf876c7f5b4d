// Package castgen produces synthetic casts for presets, benchmarks, and
// tests. Skills are sampled from archetype templates; the compatibility
// matrix comes from a smooth 2D noise field so that social ties are
// correlated rather than independent coin flips. Deterministic from the
// seed.
package castgen

import (
	"fmt"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/tribesim/internal/entropy"
	"github.com/talgya/tribesim/internal/profile"
)

// template bounds skill draws for one synthetic archetype.
type template struct {
	name       string
	challenge  [2]float64 // min, max
	strategic  [2]float64
	jury       [2]float64
	voteAcc    [2]float64
	influence  [2]float64
	idolFind   [2]float64
	winnerOdds float64 // chance this player is a prior winner
	playedMax  int     // times played sampled in [1, playedMax]
}

// templates is the synthetic archetype mix, weighted roughly like a
// returning-player season: a few beasts and masterminds, a broad social
// middle, a couple of former champions.
var templates = []template{
	{
		name:      "beast",
		challenge: [2]float64{0.65, 0.9}, strategic: [2]float64{0.3, 0.6},
		jury: [2]float64{0.2, 0.5}, voteAcc: [2]float64{0.35, 0.65},
		influence: [2]float64{0.3, 0.6}, idolFind: [2]float64{0.04, 0.1},
		winnerOdds: 0.1, playedMax: 3,
	},
	{
		name:      "mastermind",
		challenge: [2]float64{0.25, 0.55}, strategic: [2]float64{0.65, 0.9},
		jury: [2]float64{0.3, 0.6}, voteAcc: [2]float64{0.6, 0.85},
		influence: [2]float64{0.55, 0.85}, idolFind: [2]float64{0.1, 0.25},
		winnerOdds: 0.2, playedMax: 4,
	},
	{
		name:      "social",
		challenge: [2]float64{0.2, 0.5}, strategic: [2]float64{0.35, 0.6},
		jury: [2]float64{0.55, 0.85}, voteAcc: [2]float64{0.5, 0.8},
		influence: [2]float64{0.5, 0.8}, idolFind: [2]float64{0.03, 0.1},
		winnerOdds: 0.15, playedMax: 3,
	},
	{
		name:      "underdog",
		challenge: [2]float64{0.15, 0.45}, strategic: [2]float64{0.2, 0.5},
		jury: [2]float64{0.25, 0.55}, voteAcc: [2]float64{0.3, 0.6},
		influence: [2]float64{0.2, 0.5}, idolFind: [2]float64{0.02, 0.08},
		winnerOdds: 0.0, playedMax: 2,
	},
}

// noiseScale spreads players across the noise field far enough apart
// that pairs get distinct but smoothly varying compatibility.
const noiseScale = 0.37

// Generate builds a synthetic cast of n players. Every generated cast
// passes the same validation as a loaded one.
func Generate(n int, seed int64) (*profile.Store, error) {
	if n < 3 {
		return nil, fmt.Errorf("castgen: cast size %d too small", n)
	}

	rng := rand.New(rand.NewSource(entropy.Derive(seed, 0)))
	profiles := make([]profile.Profile, n)
	for i := range profiles {
		tpl := templates[rng.Intn(len(templates))]
		profiles[i] = synthesize(rng, tpl, i)
	}

	compat := compatibilityField(n, seed)
	return profile.NewStore(profiles, compat)
}

func synthesize(rng *rand.Rand, tpl template, idx int) profile.Profile {
	draw := func(bounds [2]float64) float64 {
		return bounds[0] + rng.Float64()*(bounds[1]-bounds[0])
	}
	p := profile.Profile{
		ID:               fmt.Sprintf("syn-%03d", idx+1),
		Name:             fmt.Sprintf("Castaway %02d", idx+1),
		ChallengeWinProb: draw(tpl.challenge),
		StrategicScore:   draw(tpl.strategic),
		JuryTendency:     draw(tpl.jury),
		VoteAccuracy:     draw(tpl.voteAcc),
		Influence:        draw(tpl.influence),
		IdolFindProb:     draw(tpl.idolFind),
		PriorWinner:      rng.Float64() < tpl.winnerOdds,
		TimesPlayed:      1 + rng.Intn(tpl.playedMax),
	}
	// Category sub-skills scatter around the overall skill.
	p.CategoryScores = map[string]float64{}
	for _, cat := range []string{"physical", "endurance", "precision", "puzzle", "mental", "water"} {
		v := p.ChallengeWinProb + (rng.Float64()-0.5)*0.3
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		p.CategoryScores[cat] = v
	}
	return p
}

// compatibilityField samples a normalized noise field at (i,j) and
// symmetrizes it. Nearby players on the field end up with correlated
// relationships, which is what alliance clustering needs to produce
// non-degenerate blocs.
func compatibilityField(n int, seed int64) [][]float64 {
	noise := opensimplex.NewNormalized(entropy.Derive(seed, 1))

	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		m[i][i] = 1.0
		for j := i + 1; j < n; j++ {
			a := noise.Eval2(float64(i)*noiseScale, float64(j)*noiseScale)
			b := noise.Eval2(float64(j)*noiseScale, float64(i)*noiseScale)
			v := (a + b) / 2
			// Keep away from the exact extremes so no pair is a
			// guaranteed lock or a guaranteed enemy.
			v = 0.05 + v*0.9
			m[i][j] = v
			m[j][i] = v
		}
	}
	return m
}
