package season

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/talgya/tribesim/internal/castgen"
	"github.com/talgya/tribesim/internal/config"
	"github.com/talgya/tribesim/internal/entropy"
	"github.com/talgya/tribesim/internal/profile"
)

const testCastSize = 24

func testStore(t *testing.T, n int, seed int64) *profile.Store {
	t.Helper()
	store, err := castgen.Generate(n, seed)
	if err != nil {
		t.Fatalf("generating cast: %v", err)
	}
	return store
}

func runSeason(t *testing.T, cfg config.Config, store *profile.Store, seed int64) *Result {
	t.Helper()
	s, err := New(cfg, store, entropy.Stream(seed, 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := s.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestRunProducesOneWinner(t *testing.T) {
	store := testStore(t, testCastSize, 11)
	res := runSeason(t, config.Default(), store, 42)

	if res.Winner == "" {
		t.Fatal("no winner")
	}
	if len(res.Finalists) != finalistCount {
		t.Fatalf("got %d finalists, want %d", len(res.Finalists), finalistCount)
	}
	found := false
	for _, f := range res.Finalists {
		if f == res.Winner {
			found = true
		}
	}
	if !found {
		t.Errorf("winner %q is not a finalist %v", res.Winner, res.Finalists)
	}
	if res.Placements[res.Winner] != 1 {
		t.Errorf("winner placement = %d, want 1", res.Placements[res.Winner])
	}
}

func TestPlacementsArePermutation(t *testing.T) {
	store := testStore(t, testCastSize, 7)
	res := runSeason(t, config.Default(), store, 99)

	if len(res.Placements) != testCastSize {
		t.Fatalf("got %d placements, want %d", len(res.Placements), testCastSize)
	}
	seen := make(map[int]string, testCastSize)
	for name, place := range res.Placements {
		if place < 1 || place > testCastSize {
			t.Errorf("%s placed %d, outside 1..%d", name, place, testCastSize)
		}
		if prev, dup := seen[place]; dup {
			t.Errorf("placement %d assigned to both %s and %s", place, prev, name)
		}
		seen[place] = name
	}
}

func TestEliminationOrderMatchesPlacements(t *testing.T) {
	store := testStore(t, testCastSize, 3)
	res := runSeason(t, config.Default(), store, 17)

	if len(res.EliminationOrder) != testCastSize-finalistCount {
		t.Fatalf("got %d eliminations, want %d", len(res.EliminationOrder), testCastSize-finalistCount)
	}
	for i, name := range res.EliminationOrder {
		want := testCastSize - i
		if res.Placements[name] != want {
			t.Errorf("boot #%d (%s) placed %d, want %d", i+1, name, res.Placements[name], want)
		}
	}
}

func TestMergeAndJurySizes(t *testing.T) {
	store := testStore(t, testCastSize, 5)
	res := runSeason(t, config.Default(), store, 123)

	if res.MergeSize != mergeAt {
		t.Errorf("merge size = %d, want %d", res.MergeSize, mergeAt)
	}
	// Every post-merge boot sits on the jury, fire-making loser included.
	if want := res.MergeSize - finalistCount; len(res.Jury) != want {
		t.Errorf("jury size = %d, want %d", len(res.Jury), want)
	}
	total := 0
	for _, votes := range res.JuryVotes {
		if votes < 0 {
			t.Errorf("negative jury vote count %d", votes)
		}
		total += votes
	}
	if total != len(res.Jury) {
		t.Errorf("jury votes total %d, want %d", total, len(res.Jury))
	}
}

func TestSameSeedSameSeason(t *testing.T) {
	cfg, err := config.Preset("maximum_chaos")
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	store := testStore(t, testCastSize, 21)

	a := runSeason(t, cfg, store, 777)
	b := runSeason(t, cfg, store, 777)

	ja, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	jb, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(ja, jb) {
		t.Error("same seed produced different seasons")
	}
}

func TestEpisodeProgression(t *testing.T) {
	store := testStore(t, testCastSize, 9)
	res := runSeason(t, config.Default(), store, 55)

	if len(res.Episodes) == 0 {
		t.Fatal("no episodes recorded")
	}
	prevDay := 0
	for _, ep := range res.Episodes {
		if ep.Day <= prevDay {
			t.Errorf("episode %d day %d does not advance past %d", ep.Number, ep.Day, prevDay)
		}
		prevDay = ep.Day
	}
	last := res.Episodes[len(res.Episodes)-1]
	if last.FireMaking == nil {
		t.Error("final episode has no fire-making record")
	} else if last.Eliminated != last.FireMaking.Loser {
		t.Errorf("fire loser %s but eliminated %s", last.FireMaking.Loser, last.Eliminated)
	}
	if res.TotalDays < len(res.Episodes) {
		t.Errorf("total days %d shorter than episode count %d", res.TotalDays, len(res.Episodes))
	}
}

func TestTinyCastRejected(t *testing.T) {
	store := testStore(t, MinCastSize-1, 1)
	if _, err := New(config.Default(), store, entropy.Stream(1, 0)); err == nil {
		t.Error("cast below minimum accepted")
	}
}

func TestPreMergeEpisodesAreTribal(t *testing.T) {
	store := testStore(t, testCastSize, 13)
	res := runSeason(t, config.Default(), store, 31)

	for _, ep := range res.Episodes {
		switch ep.Phase {
		case PhasePreMerge:
			if ep.ChallengeType != "tribal" {
				t.Errorf("episode %d pre-merge but challenge is %s", ep.Number, ep.ChallengeType)
			}
		case PhaseMerge, PhaseFinalStage:
			if ep.ChallengeType != "individual" {
				t.Errorf("episode %d post-merge but challenge is %s", ep.Number, ep.ChallengeType)
			}
		}
	}
}
