// Package game implements the interacting mechanics of one season:
// challenge resolution, tribal-council voting, alliance dynamics, and
// the advantage-item lifecycle. All randomness comes in through an
// explicit *rand.Rand; nothing here touches global random state.
package game

import (
	"github.com/talgya/tribesim/internal/profile"
)

// Player is the mutable per-player state owned by a season run. The
// embedded profile is shared and read-only.
type Player struct {
	Name    string
	Profile *profile.Profile

	Tribe  string
	Alive  bool
	Immune bool

	Advantages    []*Advantage
	ChallengeWins int

	// Placement is assigned at elimination (or at game end for the
	// finalists); 1 is the winner. Zero means still in the game.
	Placement int
}

// HasUnplayedIdol reports whether the player is holding an idol they
// can still play.
func (p *Player) HasUnplayedIdol() bool {
	for _, a := range p.Advantages {
		if a.Kind == KindIdol && !a.Played {
			return true
		}
	}
	return false
}

// unplayedIdol returns the first playable idol, or nil.
func (p *Player) unplayedIdol() *Advantage {
	for _, a := range p.Advantages {
		if a.Kind == KindIdol && !a.Played {
			return a
		}
	}
	return nil
}

// Alive filters a player slice down to living players.
func Alive(players []*Player) []*Player {
	var out []*Player
	for _, p := range players {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// Names extracts player names preserving order.
func Names(players []*Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Name
	}
	return out
}
