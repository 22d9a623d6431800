package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeFormat sorts lexicographically in time order, unlike RFC3339Nano
// which trims trailing zeros.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("run not found")

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	parent_id     TEXT,
	base_dir      TEXT NOT NULL,
	seeding       TEXT NOT NULL,
	config_json   TEXT NOT NULL,
	status        TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	finished_at   TEXT,
	summary_json  TEXT,
	FOREIGN KEY (parent_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS run_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	stage         TEXT NOT NULL,
	status        TEXT NOT NULL,
	records       INTEGER NOT NULL DEFAULT 0,
	detail        TEXT,
	elapsed_ms    INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// #endregion schema

// #region store-struct
// Store keeps the run history in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region begin-run
// BeginRun inserts a running row for a new run and links it to the latest
// run over the same base directory.
func (s *Store) BeginRun(baseDir, seeding, configJSON string) (RunRecord, error) {
	rec := RunRecord{
		RunID:      uuid.New().String(),
		BaseDir:    baseDir,
		Seeding:    seeding,
		ConfigJSON: configJSON,
		Status:     StatusRunning,
		CreatedAt:  time.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return RunRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parent sql.NullString
	err = tx.QueryRow(
		`SELECT run_id FROM runs WHERE base_dir = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, baseDir,
	).Scan(&parent)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("find parent run: %w", err)
	}
	if parent.Valid {
		rec.ParentID = parent.String
	}

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, parent_id, base_dir, seeding, config_json, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, nullIfEmpty(rec.ParentID), rec.BaseDir, rec.Seeding, rec.ConfigJSON,
		string(rec.Status), rec.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return RunRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// #endregion begin-run

// #region finish-run
// FinishRun records the final status and, on success, the run summary.
func (s *Store) FinishRun(runID string, status RunStatus, summaryJSON string) error {
	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, finished_at = ?, summary_json = ? WHERE run_id = ?`,
		string(status), time.Now().UTC().Format(timeFormat), nullIfEmpty(summaryJSON), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// #endregion finish-run

// #region get-run
const runColumns = `run_id, parent_id, base_dir, seeding, config_json, status, created_at, finished_at, summary_json`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var rec RunRecord
	var parentID, finishedAt, summary sql.NullString
	var status, createdAt string
	if err := row.Scan(&rec.RunID, &parentID, &rec.BaseDir, &rec.Seeding, &rec.ConfigJSON,
		&status, &createdAt, &finishedAt, &summary); err != nil {
		return RunRecord{}, err
	}
	rec.Status = RunStatus(status)
	rec.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	if parentID.Valid {
		rec.ParentID = parentID.String
	}
	if finishedAt.Valid {
		rec.FinishedAt, _ = time.Parse(timeFormat, finishedAt.String)
	}
	if summary.Valid {
		rec.SummaryJSON = summary.String
	}
	return rec, nil
}

// GetRun retrieves one run by id.
func (s *Store) GetRun(id string) (RunRecord, error) {
	rec, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return rec, nil
}

// #endregion get-run

// #region list-runs
// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion list-runs

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
