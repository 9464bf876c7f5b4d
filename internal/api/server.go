// Package api exposes the simulation service over HTTP.
// GET endpoints are public (presets, seeds, stored batches, and
// single-season simulate). POST /api/v1/simulate runs a batch; when an
// admin key is configured it requires a bearer token.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/talgya/tribesim/internal/castgen"
	"github.com/talgya/tribesim/internal/config"
	"github.com/talgya/tribesim/internal/entropy"
	"github.com/talgya/tribesim/internal/montecarlo"
	"github.com/talgya/tribesim/internal/persistence"
	"github.com/talgya/tribesim/internal/profile"
	"github.com/talgya/tribesim/internal/season"
)

// Config holds the server's environment-driven settings.
type Config struct {
	Port     int    `env:"TRIBESIM_PORT" envDefault:"8080"`
	AdminKey string `env:"TRIBESIM_ADMIN_KEY"` // empty means simulate is public

	// DBPath locates the batch results database. Empty disables
	// persistence; simulate still works but batches are not stored.
	DBPath string `env:"TRIBESIM_DB" envDefault:"tribesim.db"`

	CORSOrigins []string `env:"TRIBESIM_CORS_ORIGINS" envSeparator:","`

	// MaxRuns caps the run count of one simulate request.
	MaxRuns int `env:"TRIBESIM_MAX_RUNS" envDefault:"100000"`

	// SimulatePerHour rate-limits simulate calls per client IP.
	SimulatePerHour int `env:"TRIBESIM_SIM_RATE" envDefault:"30"`
}

// LoadConfig reads the server configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}
	return cfg, nil
}

// Server serves simulation batches over HTTP.
type Server struct {
	Cfg Config
	DB  *persistence.DB // nil disables the stored-batch endpoints
}

// Handler builds the routing table. Split from Start so tests can drive
// it through httptest.
func (s *Server) Handler() http.Handler {
	simLimiter := NewRateLimiter(s.Cfg.SimulatePerHour, time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/presets", s.handlePresets)
	mux.HandleFunc("/api/v1/preset/", s.handlePresetDetail)
	mux.HandleFunc("/api/v1/seed", s.handleSeed)
	mux.HandleFunc("/api/v1/batches", s.handleBatches)
	mux.HandleFunc("/api/v1/batch/", s.handleBatchDetail)
	mux.HandleFunc("/api/v1/simulate",
		RateLimitMiddleware(simLimiter, s.adminOnly(s.handleSimulate)))

	return s.corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Cfg.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.Cfg.AdminKey != "")
	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware allows the configured frontend origins plus localhost
// dev servers.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range s.Cfg.CORSOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.Cfg.AdminKey
}

// adminOnly requires the bearer token on POST when an admin key is set.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && s.Cfg.AdminKey != "" && !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	type presetSummary struct {
		Name            string  `json:"name"`
		ChaosFactor     float64 `json:"chaos_factor"`
		TotalIdols      int     `json:"total_idols"`
		AllianceLoyalty float64 `json:"alliance_loyalty"`
	}

	var result []presetSummary
	for _, name := range config.PresetNames() {
		cfg, err := config.Preset(name)
		if err != nil {
			continue
		}
		result = append(result, presetSummary{
			Name:            name,
			ChaosFactor:     cfg.ChaosFactor,
			TotalIdols:      cfg.TotalIdols,
			AllianceLoyalty: cfg.AllianceLoyalty,
		})
	}
	writeJSON(w, result)
}

func (s *Server) handlePresetDetail(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/preset/")
	if name == "" {
		http.Error(w, "missing preset name", http.StatusBadRequest)
		return
	}
	cfg, err := config.Preset(name)
	if err != nil {
		http.Error(w, "preset not found", http.StatusNotFound)
		return
	}
	writeJSON(w, cfg)
}

// handleSeed hands out a fresh base seed mixed from OS entropy, so
// clients get reproducible batches without inventing seeds themselves.
func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]int64{"seed": entropy.BaseSeed()})
}

func (s *Server) handleBatches(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "persistence not available", http.StatusServiceUnavailable)
		return
	}
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	batches, err := s.DB.ListBatches(limit)
	if err != nil {
		slog.Error("list batches failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if batches == nil {
		batches = []persistence.Batch{}
	}
	writeJSON(w, batches)
}

func (s *Server) handleBatchDetail(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "persistence not available", http.StatusServiceUnavailable)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/batch/")
	if id == "" {
		http.Error(w, "missing batch id", http.StatusBadRequest)
		return
	}
	batch, err := s.DB.GetBatch(id)
	if err != nil {
		http.Error(w, "batch not found", http.StatusNotFound)
		return
	}
	stats, err := s.DB.BatchStats(id)
	if err != nil {
		slog.Error("batch stats query failed", "error", err, "batch", id)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"batch":   batch,
		"players": stats,
	})
}

type simulateRequest struct {
	Preset string `json:"preset"`
	Runs   int    `json:"runs"`
	Seed   *int64 `json:"seed,omitempty"`

	// Cast, when present, is a full cast file (players plus
	// compatibility matrix). Otherwise a synthetic cast of CastSize
	// players is generated from CastSeed.
	Cast     json.RawMessage `json:"cast,omitempty"`
	CastSize int             `json:"cast_size,omitempty"`
	CastSeed int64           `json:"cast_seed,omitempty"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleSingleSeason(w, r)
		return
	case http.MethodPost:
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Preset == "" {
		req.Preset = "default"
	}
	cfg, err := config.Preset(req.Preset)
	if err != nil {
		http.Error(w, "unknown preset", http.StatusBadRequest)
		return
	}
	if req.Runs <= 0 {
		req.Runs = 1000
	}
	if req.Runs > s.Cfg.MaxRuns {
		http.Error(w, fmt.Sprintf("runs capped at %d", s.Cfg.MaxRuns), http.StatusBadRequest)
		return
	}

	store, err := buildStore(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if store.Size() < season.MinCastSize {
		http.Error(w, fmt.Sprintf("cast of %d is below the minimum %d", store.Size(), season.MinCastSize), http.StatusBadRequest)
		return
	}

	seed := entropy.BaseSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	start := time.Now()
	stats, err := montecarlo.Run(r.Context(), montecarlo.Options{
		Cfg:   cfg,
		Store: store,
		Runs:  req.Runs,
		Seed:  seed,
	})
	if err != nil {
		slog.Error("batch failed", "error", err, "preset", req.Preset)
		http.Error(w, "simulation failed", http.StatusInternalServerError)
		return
	}
	slog.Info("batch complete",
		"preset", req.Preset,
		"runs", stats.Runs,
		"elapsed", time.Since(start).Round(time.Millisecond))

	var batchID string
	if s.DB != nil {
		if batchID, err = s.DB.SaveBatch(req.Preset, seed, stats); err != nil {
			slog.Error("batch save failed", "error", err)
			batchID = ""
		}
	}

	writeJSON(w, map[string]any{
		"batch_id": batchID,
		"preset":   req.Preset,
		"seed":     seed,
		"stats":    stats,
	})
}

// handleSingleSeason runs one season and returns the full episode log.
// Query params: preset, seed, cast_size, cast_seed; a missing seed is
// drawn fresh so repeat calls tell different stories.
func (s *Server) handleSingleSeason(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	preset := q.Get("preset")
	if preset == "" {
		preset = "default"
	}
	cfg, err := config.Preset(preset)
	if err != nil {
		http.Error(w, "unknown preset", http.StatusBadRequest)
		return
	}

	seed := entropy.BaseSeed()
	if v := q.Get("seed"); v != "" {
		if seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			http.Error(w, "invalid seed", http.StatusBadRequest)
			return
		}
	}

	var req simulateRequest
	if v := q.Get("cast_size"); v != "" {
		if req.CastSize, err = strconv.Atoi(v); err != nil {
			http.Error(w, "invalid cast_size", http.StatusBadRequest)
			return
		}
	}
	if v := q.Get("cast_seed"); v != "" {
		if req.CastSeed, err = strconv.ParseInt(v, 10, 64); err != nil {
			http.Error(w, "invalid cast_seed", http.StatusBadRequest)
			return
		}
	}
	store, err := buildStore(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sn, err := season.New(cfg, store, entropy.Stream(seed, 0))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := sn.Run()
	if err != nil {
		slog.Error("season failed", "error", err, "preset", preset)
		http.Error(w, "simulation failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"preset": preset,
		"seed":   seed,
		"result": res,
	})
}

func buildStore(req simulateRequest) (*profile.Store, error) {
	if len(req.Cast) > 0 {
		store, err := profile.ParseCast(req.Cast)
		if err != nil {
			return nil, fmt.Errorf("invalid cast: %w", err)
		}
		return store, nil
	}

	size := req.CastSize
	if size == 0 {
		size = 24
	}
	castSeed := req.CastSeed
	if castSeed == 0 {
		castSeed = entropy.BaseSeed()
	}
	store, err := castgen.Generate(size, castSeed)
	if err != nil {
		return nil, fmt.Errorf("cast generation: %w", err)
	}
	return store, nil
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
