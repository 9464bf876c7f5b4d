// Alliance dynamics — greedy compatibility clustering at tribe-defining
// events, and the membership bookkeeping the voting engine reads.
package game

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/talgya/tribesim/internal/profile"
)

// Alliance is a named group of currently-alive players with a cohesion
// score derived from loyalty and mutual compatibility.
type Alliance struct {
	Name     string
	Members  []string
	Cohesion float64
}

// Contains reports membership.
func (a *Alliance) Contains(name string) bool {
	for _, m := range a.Members {
		if m == name {
			return true
		}
	}
	return false
}

// FormAlliances clusters players into alliances greedily: each unassigned
// player seeds a group and pulls in their 2-5 most compatible free
// partners. Called at initial tribe assignment, swaps, and the merge.
// namePrefix distinguishes per-tribe alliances from merge alliances.
func FormAlliances(rng *rand.Rand, players []*Player, store *profile.Store, loyalty float64, namePrefix string) []*Alliance {
	// Seed order is shuffled so the same cast does not always cluster
	// around the same leaders.
	order := make([]*Player, len(players))
	copy(order, players)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	assigned := make(map[string]bool, len(players))
	var alliances []*Alliance

	for _, seed := range order {
		if assigned[seed.Name] || !seed.Alive {
			continue
		}
		members := []string{seed.Name}
		assigned[seed.Name] = true

		type scored struct {
			name   string
			compat float64
		}
		var free []scored
		for _, other := range order {
			if other.Name == seed.Name || assigned[other.Name] || !other.Alive {
				continue
			}
			free = append(free, scored{other.Name, store.Compatibility(seed.Name, other.Name)})
		}
		sort.Slice(free, func(i, j int) bool {
			if free[i].compat != free[j].compat {
				return free[i].compat > free[j].compat
			}
			return free[i].name < free[j].name
		})

		take := 2 + rng.Intn(4) // 2-5 partners
		if take > len(free) {
			take = len(free)
		}
		for _, s := range free[:take] {
			members = append(members, s.name)
			assigned[s.name] = true
		}

		alliances = append(alliances, &Alliance{
			Name:     fmt.Sprintf("%s_alliance_%d", namePrefix, len(alliances)),
			Members:  members,
			Cohesion: cohesion(members, store, loyalty),
		})
	}
	return alliances
}

// cohesion is mean pairwise compatibility scaled by loyalty.
func cohesion(members []string, store *profile.Store, loyalty float64) float64 {
	if len(members) < 2 {
		return loyalty / 100
	}
	sum, n := 0.0, 0
	for i, a := range members {
		for _, b := range members[i+1:] {
			sum += store.Compatibility(a, b)
			n++
		}
	}
	return (loyalty / 100) * (sum / float64(n))
}

// PruneAlliances removes eliminated players from every alliance and
// drops alliances that fell below two members.
func PruneAlliances(alliances []*Alliance, isAlive func(string) bool) []*Alliance {
	var out []*Alliance
	for _, a := range alliances {
		var kept []string
		for _, m := range a.Members {
			if isAlive(m) {
				kept = append(kept, m)
			}
		}
		if len(kept) >= 2 {
			a.Members = kept
			out = append(out, a)
		}
	}
	return out
}

// SharedAlliance reports whether two players currently share any
// alliance.
func SharedAlliance(alliances []*Alliance, a, b string) bool {
	for _, al := range alliances {
		if al.Contains(a) && al.Contains(b) {
			return true
		}
	}
	return false
}
