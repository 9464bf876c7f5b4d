// Package persistence stores completed simulation batches in SQLite:
// one row of batch metadata plus per-player aggregate statistics, so
// past batches can be listed and compared without rerunning them.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/tribesim/internal/montecarlo"
)

// DB wraps a SQLite connection for batch result storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		preset TEXT NOT NULL,
		seed INTEGER NOT NULL,
		runs INTEGER NOT NULL,
		failures INTEGER NOT NULL,
		cast_size INTEGER NOT NULL,
		avg_season_days REAL NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS player_stats (
		batch_id TEXT NOT NULL REFERENCES batches(id),
		name TEXT NOT NULL,
		win_prob REAL NOT NULL,
		finalist_prob REAL NOT NULL,
		merge_prob REAL NOT NULL,
		first_boot_prob REAL NOT NULL,
		jury_prob REAL NOT NULL,
		avg_placement REAL NOT NULL,
		avg_challenge_wins REAL NOT NULL,
		avg_jury_votes REAL NOT NULL,
		placement_hist_json TEXT NOT NULL,
		PRIMARY KEY (batch_id, name)
	);

	CREATE INDEX IF NOT EXISTS idx_player_stats_batch ON player_stats(batch_id);
	CREATE INDEX IF NOT EXISTS idx_batches_created ON batches(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Batch is one stored batch's metadata.
type Batch struct {
	ID            string    `db:"id" json:"id"`
	Preset        string    `db:"preset" json:"preset"`
	Seed          int64     `db:"seed" json:"seed"`
	Runs          int       `db:"runs" json:"runs"`
	Failures      int       `db:"failures" json:"failures"`
	CastSize      int       `db:"cast_size" json:"cast_size"`
	AvgSeasonDays float64   `db:"avg_season_days" json:"avg_season_days"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// SaveBatch stores a completed batch and returns its generated ID.
func (db *DB) SaveBatch(preset string, seed int64, stats *montecarlo.Stats) (string, error) {
	id := uuid.NewString()
	created := time.Now().UTC()

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO batches
		(id, preset, seed, runs, failures, cast_size, avg_season_days, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, preset, seed, stats.Runs, stats.Failures,
		len(stats.Players), stats.AvgSeasonDays, created.Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("insert batch: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT INTO player_stats
		(batch_id, name, win_prob, finalist_prob, merge_prob, first_boot_prob,
		 jury_prob, avg_placement, avg_challenge_wins, avg_jury_votes, placement_hist_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, p := range stats.Players {
		histJSON, _ := json.Marshal(p.PlacementHist)
		_, err := stmt.Exec(
			id, p.Name, p.WinProb, p.FinalistProb, p.MergeProb, p.FirstBootProb,
			p.JuryProb, p.AvgPlacement, p.AvgChallengeWins, p.AvgJuryVotes,
			string(histJSON),
		)
		if err != nil {
			return "", fmt.Errorf("insert stats for %s: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slog.Info("batch saved", "id", id, "preset", preset, "runs", stats.Runs)
	return id, nil
}

type batchRow struct {
	ID            string  `db:"id"`
	Preset        string  `db:"preset"`
	Seed          int64   `db:"seed"`
	Runs          int     `db:"runs"`
	Failures      int     `db:"failures"`
	CastSize      int     `db:"cast_size"`
	AvgSeasonDays float64 `db:"avg_season_days"`
	CreatedAt     string  `db:"created_at"`
}

func (r batchRow) batch() Batch {
	created, _ := time.Parse(time.RFC3339, r.CreatedAt)
	return Batch{
		ID:            r.ID,
		Preset:        r.Preset,
		Seed:          r.Seed,
		Runs:          r.Runs,
		Failures:      r.Failures,
		CastSize:      r.CastSize,
		AvgSeasonDays: r.AvgSeasonDays,
		CreatedAt:     created,
	}
}

// GetBatch retrieves one batch's metadata.
func (db *DB) GetBatch(id string) (*Batch, error) {
	var row batchRow
	err := db.conn.Get(&row, `SELECT id, preset, seed, runs, failures,
		cast_size, avg_season_days, created_at FROM batches WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	b := row.batch()
	return &b, nil
}

// ListBatches returns the most recent batches, newest first.
func (db *DB) ListBatches(limit int) ([]Batch, error) {
	var rows []batchRow
	err := db.conn.Select(&rows, `SELECT id, preset, seed, runs, failures,
		cast_size, avg_season_days, created_at FROM batches
		ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Batch, len(rows))
	for i, r := range rows {
		out[i] = r.batch()
	}
	return out, nil
}

// BatchStats retrieves the per-player statistics of a stored batch,
// sorted by win probability descending.
func (db *DB) BatchStats(id string) ([]montecarlo.PlayerStats, error) {
	var rows []struct {
		Name             string  `db:"name"`
		WinProb          float64 `db:"win_prob"`
		FinalistProb     float64 `db:"finalist_prob"`
		MergeProb        float64 `db:"merge_prob"`
		FirstBootProb    float64 `db:"first_boot_prob"`
		JuryProb         float64 `db:"jury_prob"`
		AvgPlacement     float64 `db:"avg_placement"`
		AvgChallengeWins float64 `db:"avg_challenge_wins"`
		AvgJuryVotes     float64 `db:"avg_jury_votes"`
		HistJSON         string  `db:"placement_hist_json"`
	}
	err := db.conn.Select(&rows, `SELECT name, win_prob, finalist_prob,
		merge_prob, first_boot_prob, jury_prob, avg_placement,
		avg_challenge_wins, avg_jury_votes, placement_hist_json
		FROM player_stats WHERE batch_id = ? ORDER BY win_prob DESC, name ASC`, id)
	if err != nil {
		return nil, err
	}

	out := make([]montecarlo.PlayerStats, len(rows))
	for i, r := range rows {
		out[i] = montecarlo.PlayerStats{
			Name:             r.Name,
			WinProb:          r.WinProb,
			FinalistProb:     r.FinalistProb,
			MergeProb:        r.MergeProb,
			FirstBootProb:    r.FirstBootProb,
			JuryProb:         r.JuryProb,
			AvgPlacement:     r.AvgPlacement,
			AvgChallengeWins: r.AvgChallengeWins,
			AvgJuryVotes:     r.AvgJuryVotes,
		}
		if err := json.Unmarshal([]byte(r.HistJSON), &out[i].PlacementHist); err != nil {
			return nil, fmt.Errorf("decode histogram for %s: %w", r.Name, err)
		}
	}
	return out, nil
}
