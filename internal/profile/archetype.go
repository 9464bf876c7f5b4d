// Archetype classification and threat level derivation. Both are pure
// functions of a validated profile, recomputed on demand rather than
// stored, so a cast file cannot carry a stale label.
package profile

// Archetype labels. A player can carry several.
const (
	ArchChallengeBeast  = "ChallengeBeast"
	ArchChallengeThreat = "ChallengeThreat"
	ArchStrategic       = "Strategic"
	ArchSocialButterfly = "SocialButterfly"
	ArchIdolHunter      = "IdolHunter"
	ArchWinner          = "Winner"
	ArchLegend          = "Legend"
	ArchReturnee        = "Returnee"
	ArchUnderTheRadar   = "UnderTheRadar"
	ArchBalanced        = "Balanced"
)

// Archetypes classifies a player from their feature scores.
func Archetypes(p *Profile) []string {
	var archetypes []string

	switch {
	case p.ChallengeWinProb > 0.7:
		archetypes = append(archetypes, ArchChallengeBeast)
	case p.ChallengeWinProb > 0.5:
		archetypes = append(archetypes, ArchChallengeThreat)
	}

	if p.StrategicScore > 0.6 || p.Influence > 0.5 {
		archetypes = append(archetypes, ArchStrategic)
	}
	if p.JuryTendency > 0.6 {
		archetypes = append(archetypes, ArchSocialButterfly)
	}
	if p.IdolFindProb > 0.15 {
		archetypes = append(archetypes, ArchIdolHunter)
	}
	if p.PriorWinner {
		archetypes = append(archetypes, ArchWinner)
	}
	switch {
	case p.TimesPlayed >= 3:
		archetypes = append(archetypes, ArchLegend)
	case p.TimesPlayed >= 2:
		archetypes = append(archetypes, ArchReturnee)
	}

	if p.ChallengeWinProb < 0.3 && p.StrategicScore < 0.3 && p.Influence < 0.3 {
		archetypes = append(archetypes, ArchUnderTheRadar)
	}

	if len(archetypes) == 0 {
		archetypes = append(archetypes, ArchBalanced)
	}
	return archetypes
}

// IsIdolHunter reports whether the player carries the idol hunter label.
func IsIdolHunter(p *Profile) bool {
	return p.IdolFindProb > 0.15
}

// ThreatLevel scores how likely a player is to be targeted early, 0-100.
func ThreatLevel(p *Profile) float64 {
	threat := 0.0

	if p.PriorWinner {
		threat += 30
	}
	switch {
	case p.TimesPlayed >= 4:
		threat += 25
	case p.TimesPlayed >= 3:
		threat += 20
	case p.TimesPlayed >= 2:
		threat += 10
	}

	threat += p.ChallengeWinProb * 20
	threat += p.StrategicScore * 15
	threat += p.JuryTendency * 10
	threat += p.IdolFindProb * 25

	if threat > 100 {
		threat = 100
	}
	return threat
}
