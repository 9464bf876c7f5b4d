// Package season drives the phase state machine for one full season:
// pre-merge tribal play, the merge, the final-four fire-making, and the
// final tribal council. One Season owns all mutable player state for a
// run; profiles and configuration stay read-only.
package season

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/talgya/tribesim/internal/config"
	"github.com/talgya/tribesim/internal/game"
	"github.com/talgya/tribesim/internal/profile"
)

// Season structure constants.
const (
	tribeCount    = 3
	mergeAt       = 13 // merge when this many players remain
	finalStageAt  = 6  // endgame phase begins
	fireAt        = 4  // fire-making challenge at final four
	finalistCount = 3

	swapFirstAt  = 18
	swapSecondAt = 14

	// maxIdolFindsPerEpisode caps discoveries so an idol-heavy config
	// cannot flood a single episode.
	maxIdolFindsPerEpisode = 2

	// MinCastSize is the smallest cast a season can start with and
	// still reach three finalists plus a jury.
	MinCastSize = 6
)

var tribeNames = []string{"Tribe A", "Tribe B", "Tribe C"}

// Season simulates one full season. Not safe for concurrent use; each
// run owns its own Season and random stream.
type Season struct {
	cfg   config.Config
	store *profile.Store
	rng   *rand.Rand

	players []*game.Player // name-sorted; the canonical iteration order
	byName  map[string]*game.Player

	alliances []*game.Alliance
	idolsLeft int
	merged    bool
	mergeSize int
	phase     Phase

	numSwaps  int
	swapsDone int

	jury          []string
	eliminated    []string
	challengeWins map[string]int
	episodes      []Episode
	day           int
}

// New prepares a season run. The configuration and store must already
// be validated.
func New(cfg config.Config, store *profile.Store, rng *rand.Rand) (*Season, error) {
	if store.Size() < MinCastSize {
		return nil, fmt.Errorf("season: cast of %d is below the minimum %d", store.Size(), MinCastSize)
	}
	s := &Season{
		cfg:           cfg,
		store:         store,
		rng:           rng,
		byName:        make(map[string]*game.Player, store.Size()),
		idolsLeft:     cfg.TotalIdols,
		phase:         PhasePreMerge,
		challengeWins: make(map[string]int),
		day:           1,
	}
	for _, name := range store.Names() {
		p := &game.Player{Name: name, Profile: store.Get(name), Alive: true}
		s.players = append(s.players, p)
		s.byName[name] = p
	}
	return s, nil
}

// Run plays the season to completion and returns its result.
func (s *Season) Run() (*Result, error) {
	s.assignTribes()
	s.rollSwaps()

	episode := 1
	for s.aliveCount() > fireAt {
		s.runEpisode(episode)
		episode++
	}
	s.finalFour(episode)

	return s.finalTribalCouncil()
}

func (s *Season) aliveCount() int {
	n := 0
	for _, p := range s.players {
		if p.Alive {
			n++
		}
	}
	return n
}

// alivePlayers returns living players in name order, the order every
// deterministic iteration uses.
func (s *Season) alivePlayers() []*game.Player {
	return game.Alive(s.players)
}

// assignTribes shuffles the cast into three starting tribes and forms
// the first alliances inside each.
func (s *Season) assignTribes() {
	shuffled := make([]*game.Player, len(s.players))
	copy(shuffled, s.players)
	s.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	for i, p := range shuffled {
		p.Tribe = tribeNames[i%tribeCount]
	}
	s.formTribeAlliances()
}

// rollSwaps decides up front how many tribe swaps this season gets:
// none 35%, one 50%, two 15%.
func (s *Season) rollSwaps() {
	roll := s.rng.Float64()
	switch {
	case roll < 0.35:
		s.numSwaps = 0
	case roll < 0.85:
		s.numSwaps = 1
	default:
		s.numSwaps = 2
	}
}

func (s *Season) swapDue(alive int) bool {
	if s.merged || s.swapsDone >= s.numSwaps {
		return false
	}
	return (s.swapsDone == 0 && alive == swapFirstAt) ||
		(s.swapsDone == 1 && alive == swapSecondAt)
}

// tribeSwap redistributes the living players across two or three tribes
// and reforms alliances inside the new tribes.
func (s *Season) tribeSwap() {
	alive := s.alivePlayers()

	shuffled := make([]*game.Player, len(alive))
	copy(shuffled, alive)
	s.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	numTribes := tribeCount
	if len(alive) < 12 {
		numTribes = 2
	}
	for i, p := range shuffled {
		p.Tribe = tribeNames[i%numTribes]
	}
	s.formTribeAlliances()
	s.swapsDone++
	slog.Debug("tribe swap", "remaining", len(alive), "tribes", numTribes)
}

func (s *Season) formTribeAlliances() {
	s.alliances = nil
	for _, tribe := range tribeNames {
		var members []*game.Player
		for _, p := range s.alivePlayers() {
			if p.Tribe == tribe {
				members = append(members, p)
			}
		}
		if len(members) == 0 {
			continue
		}
		s.alliances = append(s.alliances,
			game.FormAlliances(s.rng, members, s.store, s.cfg.AllianceLoyalty, tribe)...)
	}
}

// merge collapses the tribes and reforms alliances across the whole
// remaining cast.
func (s *Season) merge() {
	alive := s.alivePlayers()
	for _, p := range alive {
		p.Tribe = "Merged"
	}
	s.alliances = game.FormAlliances(s.rng, alive, s.store, s.cfg.AllianceLoyalty, "merged")
	s.merged = true
	s.mergeSize = len(alive)
	s.phase = PhaseMerge
	slog.Debug("tribes merged", "remaining", len(alive))
}

// idolSearchPhase lets eager players hunt for advantages. Idol hunters
// and strong strategists always search; everyone else rolls against the
// configured search probability.
func (s *Season) idolSearchPhase() []string {
	var found []string
	for _, p := range s.alivePlayers() {
		if len(found) >= maxIdolFindsPerEpisode || s.idolsLeft <= 0 {
			break
		}
		searches := profile.IsIdolHunter(p.Profile) ||
			p.Profile.StrategicScore > 0.6 ||
			s.rng.Float64() < s.cfg.IdolSearchProbability
		if !searches {
			continue
		}
		if adv := game.AttemptSearch(s.rng, p, s.idolsLeft); adv != nil {
			p.Advantages = append(p.Advantages, adv)
			s.idolsLeft--
			found = append(found, p.Name)
		}
	}
	return found
}

// runEpisode plays one episode: swap/merge checks, idol search, the
// immunity challenge, and a tribal council ending in one elimination.
func (s *Season) runEpisode(number int) {
	alive := s.alivePlayers()

	if s.swapDue(len(alive)) {
		s.tribeSwap()
	}
	if !s.merged && len(alive) <= mergeAt {
		s.merge()
	}

	idolsFound := s.idolSearchPhase()
	category := game.PickCategory(s.rng, s.cfg.ChallengeDistribution)

	ep := Episode{
		Number:     number,
		Day:        s.day,
		Phase:      s.phase,
		Category:   category,
		IdolsFound: idolsFound,
	}

	var voters, candidates []*game.Player
	if s.merged {
		ep.ChallengeType = "individual"
		winner := game.IndividualImmunity(s.rng, s.alivePlayers(), category, s.cfg.ChaosFactor)
		winner.Immune = true
		winner.ChallengeWins++
		s.challengeWins[winner.Name]++
		ep.Winner = winner.Name
		ep.Immune = []string{winner.Name}

		voters = s.alivePlayers()
		for _, p := range voters {
			if !p.Immune {
				candidates = append(candidates, p)
			}
		}
	} else {
		ep.ChallengeType = "tribal"
		voters, candidates = s.tribalChallenge(&ep, category)
	}

	council := &game.Council{
		Cfg:       s.cfg,
		Alliances: s.alliances,
		PreMerge:  !s.merged,
		Remaining: len(s.alivePlayers()),
		Compat:    s.store.MeanCompatibility,
	}
	res := council.Run(s.rng, voters, candidates)

	ep.Votes = res.Votes
	ep.Tally = res.Tally
	ep.IdolsPlayed = res.IdolPlays
	ep.Revote = res.Revote
	// An empty elimination means an idol nullified every vote with no
	// other candidate left; the episode ends with nobody going home.
	if res.Eliminated != "" {
		s.eliminate(res.Eliminated)
	}
	ep.Eliminated = res.Eliminated
	ep.Remaining = game.Names(s.alivePlayers())

	s.resetImmunity()
	s.day += 3
	s.updatePhase()
	s.episodes = append(s.episodes, ep)
}

// tribalChallenge resolves tribe immunity and returns the losing tribe
// as both voters and candidates.
func (s *Season) tribalChallenge(ep *Episode, category string) (voters, candidates []*game.Player) {
	members := make(map[string][]*game.Player)
	var active []string
	for _, tribe := range tribeNames {
		for _, p := range s.alivePlayers() {
			if p.Tribe == tribe {
				members[tribe] = append(members[tribe], p)
			}
		}
		if len(members[tribe]) > 0 {
			active = append(active, tribe)
		}
	}

	winner := game.TribalImmunity(s.rng, active, members, category, s.cfg.ChaosFactor)
	ep.Winner = winner

	// One losing tribe goes to council; every other tribe is safe.
	var losers []string
	for _, tribe := range active {
		if tribe != winner {
			losers = append(losers, tribe)
		}
	}
	losing := losers[0]
	if len(losers) > 1 {
		losing = losers[s.rng.Intn(len(losers))]
	}

	for _, tribe := range active {
		if tribe == losing {
			continue
		}
		for _, p := range members[tribe] {
			p.Immune = true
			ep.Immune = append(ep.Immune, p.Name)
		}
	}

	return members[losing], members[losing]
}

func (s *Season) eliminate(name string) {
	p := s.byName[name]
	alive := s.aliveCount()
	p.Alive = false
	p.Placement = alive
	s.eliminated = append(s.eliminated, name)
	if s.merged {
		s.jury = append(s.jury, name)
	}
	s.alliances = game.PruneAlliances(s.alliances, func(n string) bool {
		return s.byName[n].Alive
	})
}

func (s *Season) resetImmunity() {
	for _, p := range s.players {
		p.Immune = false
	}
}

func (s *Season) updatePhase() {
	if s.merged && s.aliveCount() <= finalStageAt {
		s.phase = PhaseFinalStage
	}
}

// finalFour plays the endgame episode: the immunity winner brings one
// player to the end, and the other two make fire for the last seat.
func (s *Season) finalFour(number int) {
	alive := s.alivePlayers()
	category := game.PickCategory(s.rng, s.cfg.ChallengeDistribution)

	winner := game.IndividualImmunity(s.rng, alive, category, s.cfg.ChaosFactor)
	winner.Immune = true
	winner.ChallengeWins++
	s.challengeWins[winner.Name]++

	// The winner brings the finalist they most expect to beat: the
	// lowest jury threat, with a little misread.
	var others []*game.Player
	for _, p := range alive {
		if p != winner {
			others = append(others, p)
		}
	}
	threat := make(map[string]float64, len(others))
	for _, p := range others {
		threat[p.Name] = p.Profile.JuryTendency*0.6 +
			p.Profile.StrategicScore*0.4 +
			(s.rng.Float64()-0.5)*0.2
	}
	sort.Slice(others, func(i, j int) bool {
		return threat[others[i].Name] < threat[others[j].Name]
	})
	chosen := others[0]
	chosen.Immune = true

	// Fire-making between the remaining two, weighted by challenge
	// skill with wide variance. Same zero-total guard as every other
	// normalization.
	fireMakers := []*game.Player{others[1], others[2]}
	weights := make([]float64, 2)
	for i, p := range fireMakers {
		weights[i] = p.Profile.ChallengeWinProb * (0.7 + s.rng.Float64()*0.6)
	}
	fireWinner := fireMakers[0]
	if weights[0]+weights[1] <= 0 {
		fireWinner = fireMakers[s.rng.Intn(2)]
	} else if s.rng.Float64()*(weights[0]+weights[1]) >= weights[0] {
		fireWinner = fireMakers[1]
	}
	fireLoser := fireMakers[0]
	if fireLoser == fireWinner {
		fireLoser = fireMakers[1]
	}

	s.eliminate(fireLoser.Name)
	s.resetImmunity()

	ep := Episode{
		Number:        number,
		Day:           s.day,
		Phase:         PhaseFinalStage,
		ChallengeType: "individual",
		Category:      category,
		Winner:        winner.Name,
		Immune:        []string{winner.Name},
		Eliminated:    fireLoser.Name,
		Remaining:     game.Names(s.alivePlayers()),
		FireMaking: &FireMaking{
			Winner: fireWinner.Name,
			Loser:  fireLoser.Name,
			Chosen: chosen.Name,
		},
	}
	s.day += 3
	s.episodes = append(s.episodes, ep)
	s.phase = PhaseFTC
}

// finalTribalCouncil tallies the jury vote and assembles the result.
func (s *Season) finalTribalCouncil() (*Result, error) {
	finalists := s.alivePlayers()
	if len(finalists) != finalistCount {
		return nil, fmt.Errorf("season: %d finalists at final tribal, want %d", len(finalists), finalistCount)
	}

	juryVotes := make(map[string]int, finalistCount)
	for _, f := range finalists {
		juryVotes[f.Name] = 0
	}
	for _, jurorName := range s.jury {
		best, bestScore := "", -1.0
		for _, f := range finalists {
			score := s.store.Compatibility(jurorName, f.Name)*0.4 +
				f.Profile.JuryTendency*0.35 +
				f.Profile.StrategicScore*0.25 +
				(s.rng.Float64()-0.5)*0.1
			if score > bestScore {
				best, bestScore = f.Name, score
			}
		}
		juryVotes[best]++
	}

	// Rank finalists by jury votes; ties resolve by a seeded draw.
	ranked := make([]string, 0, finalistCount)
	for _, f := range finalists {
		ranked = append(ranked, f.Name)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if juryVotes[ranked[i]] != juryVotes[ranked[j]] {
			return juryVotes[ranked[i]] > juryVotes[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > 1 && juryVotes[ranked[0]] == juryVotes[ranked[1]] {
		// Tied for the win: uniform draw among everyone at the top.
		top := []string{ranked[0]}
		for _, name := range ranked[1:] {
			if juryVotes[name] == juryVotes[ranked[0]] {
				top = append(top, name)
			}
		}
		winner := top[s.rng.Intn(len(top))]
		for i, name := range ranked {
			if name == winner {
				ranked[0], ranked[i] = ranked[i], ranked[0]
				break
			}
		}
	}

	placements := make(map[string]int, len(s.players))
	for i, name := range ranked {
		placements[name] = i + 1
		s.byName[name].Placement = i + 1
	}
	for _, p := range s.players {
		if !p.Alive {
			placements[p.Name] = p.Placement
		}
	}

	s.phase = PhaseTerminal
	return &Result{
		Winner:           ranked[0],
		Finalists:        game.Names(finalists),
		Placements:       placements,
		EliminationOrder: s.eliminated,
		ChallengeWins:    s.challengeWins,
		JuryVotes:        juryVotes,
		Jury:             s.jury,
		MergeSize:        s.mergeSize,
		Episodes:         s.episodes,
		TotalDays:        s.day - 1,
	}, nil
}
