// Package history persists generated reports in a SQLite database so that
// reductions can be tracked across runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/rshade/netzero-testops/internal/carbon"
	"github.com/rshade/netzero-testops/internal/report"
)

// ErrNotFound is returned by Get for an unknown report ID.
var ErrNotFound = errors.New("report not found")

// Config configures the history database.
type Config struct {
	// Path is the SQLite database file. Parent directories are created.
	Path string

	// MaxEntries keeps only the newest reports after each save. Zero keeps all.
	MaxEntries int

	Logger zerolog.Logger
}

// DefaultConfig stores history under the user's home directory.
func DefaultConfig() Config {
	homeDir, _ := os.UserHomeDir()
	return Config{
		Path:       filepath.Join(homeDir, ".netzero-testops", "history.db"),
		MaxEntries: 1000,
		Logger:     zerolog.Nop(),
	}
}

// Entry is the indexed summary of a stored report.
type Entry struct {
	ReportID                  string    `json:"report_id"`
	GeneratedAt               time.Time `json:"generated_timestamp"`
	ScenariosAnalyzed         int       `json:"scenarios_analyzed"`
	ScenariosIncluded         int       `json:"scenarios_included"`
	AverageCarbonReductionPct *float64  `json:"average_carbon_reduction_percent"`
	TotalCarbonSavedG         float64   `json:"total_carbon_saved_g_co2e"`
	ProjectedCarbonSavedKg    *float64  `json:"projected_carbon_saved_kg"`
}

// Store is a SQLite-backed report history. It is safe for concurrent use.
type Store struct {
	cfg Config
	db  *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	report_id TEXT NOT NULL UNIQUE,
	generated_at TEXT NOT NULL,
	scenarios_analyzed INTEGER NOT NULL,
	scenarios_included INTEGER NOT NULL,
	avg_carbon_reduction_pct REAL,
	total_carbon_saved_g REAL NOT NULL,
	projected_carbon_saved_kg REAL,
	data TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_reports_generated ON reports(generated_at DESC);
`

// Open opens or creates the history database at cfg.Path.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: history path is empty", carbon.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	cfg.Logger.Debug().
		Str("db_path", cfg.Path).
		Int("max_entries", cfg.MaxEntries).
		Msg("history store opened")

	return &Store{cfg: cfg, db: db}, nil
}

// Save stores r. The report must carry a unique ReportID.
func (s *Store) Save(ctx context.Context, r *report.Report) error {
	if r == nil || r.Metadata.ReportID == "" {
		return fmt.Errorf("%w: report has no id", carbon.ErrInvalidInput)
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	var projectedKg *float64
	if r.Projections != nil {
		kg := r.Projections.Environmental.CarbonSavedKg
		projectedKg = &kg
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (
			report_id, generated_at, scenarios_analyzed, scenarios_included,
			avg_carbon_reduction_pct, total_carbon_saved_g, projected_carbon_saved_kg, data
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.Metadata.ReportID,
		r.Metadata.GeneratedTimestamp.UTC().Format(time.RFC3339Nano),
		r.Metadata.ScenariosAnalyzed,
		r.Summary.ScenariosIncluded,
		r.Summary.AverageCarbonReductionPct,
		r.Summary.TotalCarbonSavedG,
		projectedKg,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("saving report %s: %w", r.Metadata.ReportID, err)
	}

	if s.cfg.MaxEntries > 0 {
		if err := s.prune(ctx); err != nil {
			s.cfg.Logger.Warn().Err(err).Msg("history pruning failed")
		}
	}
	return nil
}

// prune deletes all but the newest MaxEntries reports.
func (s *Store) prune(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM reports WHERE id NOT IN (
			SELECT id FROM reports ORDER BY generated_at DESC, id DESC LIMIT ?
		)
	`, s.cfg.MaxEntries)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.cfg.Logger.Debug().Int64("deleted", n).Msg("pruned report history")
	}
	return nil
}

// List returns up to limit entries, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT report_id, generated_at, scenarios_analyzed, scenarios_included,
			avg_carbon_reduction_pct, total_carbon_saved_g, projected_carbon_saved_kg
		FROM reports
		ORDER BY generated_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e           Entry
			generatedAt string
			avg         sql.NullFloat64
			projected   sql.NullFloat64
		)
		if err := rows.Scan(&e.ReportID, &generatedAt, &e.ScenariosAnalyzed, &e.ScenariosIncluded,
			&avg, &e.TotalCarbonSavedG, &projected); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		e.GeneratedAt, err = time.Parse(time.RFC3339Nano, generatedAt)
		if err != nil {
			s.cfg.Logger.Warn().Err(err).Str("report_id", e.ReportID).Msg("invalid stored timestamp")
		}
		if avg.Valid {
			e.AverageCarbonReductionPct = &avg.Float64
		}
		if projected.Valid {
			e.ProjectedCarbonSavedKg = &projected.Float64
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reports: %w", err)
	}
	return entries, nil
}

// Get returns the stored report with the given ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, reportID string) (*report.Report, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM reports WHERE report_id = ?`, reportID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, reportID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", reportID, err)
	}

	var r report.Report
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", reportID, err)
	}
	return &r, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
