// Season results — the per-run records the aggregator and archive
// consume. The schema is stable: per-player placements, elimination
// order, challenge tallies, jury votes, and an episode log.
package season

// Phase labels the stages of a season.
type Phase int

const (
	PhasePreMerge Phase = iota
	PhaseMerge
	PhaseFinalStage
	PhaseFTC
	PhaseTerminal
)

func (p Phase) String() string {
	switch p {
	case PhasePreMerge:
		return "pre_merge"
	case PhaseMerge:
		return "merge"
	case PhaseFinalStage:
		return "final_stage"
	case PhaseFTC:
		return "final_tribal_council"
	case PhaseTerminal:
		return "terminal"
	}
	return "unknown"
}

// MarshalText renders the phase name in JSON output.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// FireMaking records the final-four fire challenge.
type FireMaking struct {
	Winner string `json:"winner"`
	Loser  string `json:"loser"`
	Chosen string `json:"chosen"`
}

// Episode is the record of one elimination event.
type Episode struct {
	Number        int               `json:"episode"`
	Day           int               `json:"day"`
	Phase         Phase             `json:"phase"`
	ChallengeType string            `json:"challenge_type"` // "tribal" or "individual"
	Category      string            `json:"category"`
	Winner        string            `json:"winner"` // tribe or player
	Immune        []string          `json:"immune"`
	Votes         map[string]string `json:"votes,omitempty"`
	Tally         map[string]int    `json:"tally,omitempty"`
	IdolsFound    []string          `json:"idols_found,omitempty"`
	IdolsPlayed   []string          `json:"idols_played,omitempty"`
	Revote        bool              `json:"revote,omitempty"`
	Eliminated    string            `json:"eliminated"`
	Remaining     []string          `json:"remaining"`
	FireMaking    *FireMaking       `json:"fire_making,omitempty"`
}

// Result is the complete outcome of one season run.
type Result struct {
	Winner    string   `json:"winner"`
	Finalists []string `json:"finalists"`

	// Placements maps player → final placement; 1 is the winner, higher
	// numbers were eliminated earlier.
	Placements map[string]int `json:"placements"`

	// EliminationOrder lists players first boot to last boot.
	EliminationOrder []string `json:"elimination_order"`

	ChallengeWins map[string]int `json:"challenge_wins"`
	JuryVotes     map[string]int `json:"jury_votes"`
	Jury          []string       `json:"jury"`

	// MergeSize is the player count at which the tribes merged; anyone
	// with a placement at or below it reached the merge.
	MergeSize int `json:"merge_size"`

	Episodes  []Episode `json:"episodes"`
	TotalDays int       `json:"total_days"`
}
