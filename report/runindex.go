package report

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// RunIndex keeps one row per finished run in a SQLite file so that runs with
// different seeds and parameters can be compared later.
type RunIndex struct {
	db *sql.DB
}

type RunRecord struct {
	RunID        string
	Seed         uint64
	RecordedAt   time.Time
	Status       string
	Iterations   int
	MaxSites     int
	IncludeEMF   bool
	Energy       float64
	ServedUsers  int
	TotalUsers   int
	ActiveSites  int
	PeakExposure float64
	ArchivePath  string
}

func NewRunID() string {
	return uuid.NewString()
}

func OpenRunIndex(path string) (*RunIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty run index path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		recorded_at TEXT NOT NULL,
		status TEXT NOT NULL,
		iterations INTEGER NOT NULL,
		max_sites INTEGER NOT NULL,
		include_emf INTEGER NOT NULL,
		energy REAL NOT NULL,
		served_users INTEGER NOT NULL,
		total_users INTEGER NOT NULL,
		active_sites INTEGER NOT NULL,
		peak_exposure REAL NOT NULL,
		archive_path TEXT NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &RunIndex{db: db}, nil
}

func (idx *RunIndex) Close() error {
	return idx.db.Close()
}

func (idx *RunIndex) RecordRun(ctx context.Context, run RunRecord) error {
	if run.RunID == "" {
		run.RunID = NewRunID()
	}
	if run.RecordedAt.IsZero() {
		run.RecordedAt = time.Now().UTC()
	}

	// sqlite INTEGER is signed; seeds are stored by their bit pattern
	_, err := idx.db.ExecContext(ctx, `INSERT INTO runs (
		run_id, seed, recorded_at, status, iterations, max_sites, include_emf,
		energy, served_users, total_users, active_sites, peak_exposure, archive_path
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, int64(run.Seed), run.RecordedAt.Format(time.RFC3339Nano), run.Status, run.Iterations,
		run.MaxSites, run.IncludeEMF, run.Energy, run.ServedUsers, run.TotalUsers, run.ActiveSites,
		run.PeakExposure, run.ArchivePath)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", run.RunID, err)
	}
	return nil
}

// ListRuns returns every recorded run, best energy first.
func (idx *RunIndex) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := idx.db.QueryContext(ctx, `SELECT
		run_id, seed, recorded_at, status, iterations, max_sites, include_emf,
		energy, served_users, total_users, active_sites, peak_exposure, archive_path
	FROM runs ORDER BY energy ASC, recorded_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunRecord, 0)
	for rows.Next() {
		var (
			run        RunRecord
			seed       int64
			recordedAt string
		)
		if err := rows.Scan(&run.RunID, &seed, &recordedAt, &run.Status, &run.Iterations, &run.MaxSites,
			&run.IncludeEMF, &run.Energy, &run.ServedUsers, &run.TotalUsers, &run.ActiveSites,
			&run.PeakExposure, &run.ArchivePath); err != nil {
			return nil, err
		}
		run.Seed = uint64(seed)
		run.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", run.RunID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunRecordFromArchive fills the index row of an archived run.
func RunRecordFromArchive(archive Archive, archivePath string) RunRecord {
	return RunRecord{
		RunID:        archive.RunID,
		Seed:         archive.Seed,
		RecordedAt:   archive.FinishedAt,
		Status:       archive.Status,
		Iterations:   archive.Iterations,
		MaxSites:     archive.Params.MaxSites,
		IncludeEMF:   archive.Params.IncludeEMFExposure,
		Energy:       archive.Summary.Energy,
		ServedUsers:  archive.Summary.ServedUsers,
		TotalUsers:   archive.Summary.TotalUsers,
		ActiveSites:  archive.Summary.ActiveSites,
		PeakExposure: archive.Summary.PeakExposure,
		ArchivePath:  archivePath,
	}
}
