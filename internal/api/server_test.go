package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/talgya/tribesim/internal/persistence"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Server{
		Cfg: Config{MaxRuns: 1000, SimulatePerHour: 100},
		DB:  db,
	}
}

func TestPresetsEndpoint(t *testing.T) {
	srv := httptest.NewServer(testServer(t).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/presets")
	if err != nil {
		t.Fatalf("GET presets: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var presets []struct {
		Name        string  `json:"name"`
		ChaosFactor float64 `json:"chaos_factor"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&presets); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(presets) < 10 {
		t.Errorf("got %d presets, want at least 10", len(presets))
	}
	names := make(map[string]bool)
	for _, p := range presets {
		names[p.Name] = true
	}
	for _, want := range []string{"default", "maximum_chaos", "idol_fest"} {
		if !names[want] {
			t.Errorf("preset %q missing from listing", want)
		}
	}
}

func TestPresetDetail(t *testing.T) {
	srv := httptest.NewServer(testServer(t).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/preset/maximum_chaos")
	if err != nil {
		t.Fatalf("GET preset: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var cfg struct {
		ChaosFactor float64 `json:"chaos_factor"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.ChaosFactor != 1.0 {
		t.Errorf("maximum_chaos chaos factor = %v, want 1", cfg.ChaosFactor)
	}

	resp2, err := http.Get(srv.URL + "/api/v1/preset/no_such_preset")
	if err != nil {
		t.Fatalf("GET bad preset: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("unknown preset status = %d, want 404", resp2.StatusCode)
	}
}

func TestSeedEndpoint(t *testing.T) {
	srv := httptest.NewServer(testServer(t).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/seed")
	if err != nil {
		t.Fatalf("GET seed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]int64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["seed"]; !ok {
		t.Error("response missing seed field")
	}
}

func TestSimulateAndFetchBatch(t *testing.T) {
	server := testServer(t)
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	body := `{"preset":"default","runs":20,"seed":42,"cast_size":24,"cast_seed":7}`
	resp, err := http.Post(srv.URL+"/api/v1/simulate", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST simulate: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("simulate status = %d", resp.StatusCode)
	}

	var result struct {
		BatchID string `json:"batch_id"`
		Seed    int64  `json:"seed"`
		Stats   struct {
			Runs    int `json:"runs"`
			Players []struct {
				Name    string  `json:"name"`
				WinProb float64 `json:"win_prob"`
			} `json:"players"`
		} `json:"stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Seed != 42 {
		t.Errorf("seed = %d, want 42", result.Seed)
	}
	if result.Stats.Runs != 20 {
		t.Errorf("runs = %d, want 20", result.Stats.Runs)
	}
	if len(result.Stats.Players) != 24 {
		t.Errorf("got %d players, want 24", len(result.Stats.Players))
	}
	if result.BatchID == "" {
		t.Fatal("batch not persisted")
	}

	detail, err := http.Get(srv.URL + "/api/v1/batch/" + result.BatchID)
	if err != nil {
		t.Fatalf("GET batch: %v", err)
	}
	defer detail.Body.Close()
	if detail.StatusCode != http.StatusOK {
		t.Fatalf("batch detail status = %d", detail.StatusCode)
	}

	var stored struct {
		Batch struct {
			Preset string `json:"preset"`
			Runs   int    `json:"runs"`
		} `json:"batch"`
		Players []json.RawMessage `json:"players"`
	}
	if err := json.NewDecoder(detail.Body).Decode(&stored); err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if stored.Batch.Preset != "default" || stored.Batch.Runs != 20 {
		t.Errorf("stored batch mismatch: %+v", stored.Batch)
	}
	if len(stored.Players) != 24 {
		t.Errorf("stored %d player rows, want 24", len(stored.Players))
	}
}

func TestSimulateSingleSeason(t *testing.T) {
	srv := httptest.NewServer(testServer(t).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/simulate?preset=default&seed=42&cast_size=24&cast_seed=7")
	if err != nil {
		t.Fatalf("GET simulate: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Preset string `json:"preset"`
		Seed   int64  `json:"seed"`
		Result struct {
			Winner    string            `json:"winner"`
			Finalists []string          `json:"finalists"`
			Episodes  []json.RawMessage `json:"episodes"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Seed != 42 {
		t.Errorf("seed = %d, want 42", body.Seed)
	}
	if body.Result.Winner == "" {
		t.Error("no winner crowned")
	}
	if len(body.Result.Finalists) != 3 {
		t.Errorf("got %d finalists, want 3", len(body.Result.Finalists))
	}
	if len(body.Result.Episodes) == 0 {
		t.Error("episode log is empty")
	}

	bad, err := http.Get(srv.URL + "/api/v1/simulate?seed=abc")
	if err != nil {
		t.Fatalf("GET bad seed: %v", err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("bad seed status = %d, want 400", bad.StatusCode)
	}
}

func TestSimulateRejectsBadRequests(t *testing.T) {
	server := testServer(t)
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{runs:}`, http.StatusBadRequest},
		{"unknown preset", `{"preset":"nope","runs":5}`, http.StatusBadRequest},
		{"too many runs", `{"runs":999999}`, http.StatusBadRequest},
		{"tiny cast", `{"runs":5,"cast_size":2}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/v1/simulate", "application/json", strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestSimulateRequiresAdminKey(t *testing.T) {
	server := testServer(t)
	server.Cfg.AdminKey = "sekrit"
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	body := `{"runs":5,"cast_size":24,"cast_seed":1,"seed":1}`
	resp, err := http.Post(srv.URL+"/api/v1/simulate", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/simulate", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer sekrit")
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authed POST: %v", err)
	}
	authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Errorf("authed status = %d, want 200", authed.StatusCode)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d denied inside allowance", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("request allowed past allowance")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("different IP shares the bucket")
	}
	if rl.RetryAfter("10.0.0.1") <= 0 {
		t.Error("exhausted bucket reports no retry delay")
	}
}
