package profile

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func validProfile(name string) Profile {
	return Profile{
		ID:               strings.ToLower(name),
		Name:             name,
		ChallengeWinProb: 0.5,
		StrategicScore:   0.5,
		JuryTendency:     0.5,
		VoteAccuracy:     0.5,
		Influence:        0.5,
		IdolFindProb:     0.08,
	}
}

func identityMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i == j {
				m[i][j] = 1.0
			} else {
				m[i][j] = 0.5
			}
		}
	}
	return m
}

func TestValidateRejectsNaN(t *testing.T) {
	p := validProfile("Quinn")
	p.JuryTendency = math.NaN()
	err := p.Validate()
	if err == nil {
		t.Fatal("NaN jury tendency must be rejected")
	}
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DataError, got %T", err)
	}
	if de.Field != "jury_tendency" {
		t.Fatalf("wrong field: %s", de.Field)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	p := validProfile("Quinn")
	p.Influence = 1.5
	if p.Validate() == nil {
		t.Fatal("influence above 1 must be rejected")
	}
	p = validProfile("Quinn")
	p.CategoryScores = map[string]float64{"puzzle": -0.1}
	if p.Validate() == nil {
		t.Fatal("negative category score must be rejected")
	}
}

func TestZeroJuryTendencyIsValid(t *testing.T) {
	// Absence of jury history arrives as a resolved 0, not NaN; the core
	// must accept it.
	p := validProfile("Rookie")
	p.JuryTendency = 0
	if err := p.Validate(); err != nil {
		t.Fatalf("zero jury tendency should validate: %v", err)
	}
}

func TestCategorySkillFallback(t *testing.T) {
	p := validProfile("Sam")
	p.ChallengeWinProb = 0.7
	p.CategoryScores = map[string]float64{"puzzle": 0.9}

	if got := p.CategorySkill("puzzle"); got != 0.9 {
		t.Fatalf("puzzle skill = %v, want 0.9", got)
	}
	if got := p.CategorySkill("water"); got != 0.7 {
		t.Fatalf("water skill should fall back to overall: %v", got)
	}
}

func TestStoreRejectsAsymmetricMatrix(t *testing.T) {
	profiles := []Profile{validProfile("Alice"), validProfile("Bob")}
	m := identityMatrix(2)
	m[0][1] = 0.8
	m[1][0] = 0.3
	if _, err := NewStore(profiles, m); err == nil {
		t.Fatal("asymmetric matrix must be rejected")
	}
}

func TestStoreRejectsWrongMatrixSize(t *testing.T) {
	profiles := []Profile{validProfile("Alice"), validProfile("Bob")}
	if _, err := NewStore(profiles, identityMatrix(3)); err == nil {
		t.Fatal("wrong-size matrix must be rejected")
	}
}

func TestStoreRejectsDuplicateNames(t *testing.T) {
	profiles := []Profile{validProfile("Alice"), validProfile("Alice")}
	if _, err := NewStore(profiles, identityMatrix(2)); err == nil {
		t.Fatal("duplicate names must be rejected")
	}
}

func TestMeanCompatibility(t *testing.T) {
	profiles := []Profile{validProfile("Alice"), validProfile("Bob"), validProfile("Cleo")}
	m := identityMatrix(3)
	m[0][1], m[1][0] = 0.9, 0.9 // Alice-Bob
	m[0][2], m[2][0] = 0.1, 0.1 // Alice-Cleo
	store, err := NewStore(profiles, m)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	got := store.MeanCompatibility("Alice", []string{"Bob", "Cleo", "Alice"})
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("mean compat = %v, want 0.5 (self excluded)", got)
	}
	if store.MeanCompatibility("Alice", nil) != 0.5 {
		t.Fatal("empty set should return neutral 0.5")
	}
}

func TestArchetypeClassification(t *testing.T) {
	beast := validProfile("Beast")
	beast.ChallengeWinProb = 0.8
	if !contains(Archetypes(&beast), ArchChallengeBeast) {
		t.Fatal("expected ChallengeBeast")
	}

	winner := validProfile("Champ")
	winner.PriorWinner = true
	winner.TimesPlayed = 3
	archs := Archetypes(&winner)
	if !contains(archs, ArchWinner) || !contains(archs, ArchLegend) {
		t.Fatalf("expected Winner+Legend, got %v", archs)
	}

	plain := validProfile("Plain")
	plain.ChallengeWinProb = 0.3
	plain.StrategicScore = 0.3
	plain.Influence = 0.3
	plain.JuryTendency = 0.3
	plain.IdolFindProb = 0.05
	if got := Archetypes(&plain); len(got) != 1 || got[0] != ArchBalanced {
		t.Fatalf("expected only Balanced, got %v", got)
	}

	quiet := validProfile("Quiet")
	quiet.ChallengeWinProb = 0.2
	quiet.StrategicScore = 0.2
	quiet.Influence = 0.2
	quiet.JuryTendency = 0.3
	quiet.IdolFindProb = 0.05
	if !contains(Archetypes(&quiet), ArchUnderTheRadar) {
		t.Fatal("expected UnderTheRadar")
	}
}

func TestThreatLevelBounds(t *testing.T) {
	max := validProfile("Max")
	max.PriorWinner = true
	max.TimesPlayed = 5
	max.ChallengeWinProb = 1
	max.StrategicScore = 1
	max.JuryTendency = 1
	max.IdolFindProb = 1
	if got := ThreatLevel(&max); got != 100 {
		t.Fatalf("threat should cap at 100, got %v", got)
	}

	winner := validProfile("W")
	winner.PriorWinner = true
	other := validProfile("O")
	if ThreatLevel(&winner) <= ThreatLevel(&other) {
		t.Fatal("prior winner must have higher threat level")
	}
}

func TestParseCastSchemaViolation(t *testing.T) {
	raw := []byte(`{"players":[{"name":"Alice","challenge_win_prob":1.2,
		"strategic_score":0.5,"jury_tendency":0.5,"vote_accuracy":0.5,
		"influence":0.5,"idol_find_prob":0.1}],
		"compatibility_matrix":[[1.0]]}`)
	if _, err := ParseCast(raw); err == nil {
		t.Fatal("schema must reject challenge_win_prob > 1")
	}
}

func TestParseCastRoundTrip(t *testing.T) {
	file := castFile{
		Players:             []Profile{validProfile("Alice"), validProfile("Bob")},
		CompatibilityMatrix: identityMatrix(2),
	}
	raw, err := json.Marshal(file)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	store, err := ParseCast(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if store.Size() != 2 {
		t.Fatalf("size = %d, want 2", store.Size())
	}
	if store.Get("Alice") == nil {
		t.Fatal("Alice missing from store")
	}
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
