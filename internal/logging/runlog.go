package logging

import (
	"database/sql"
	"fmt"
	"time"
)

const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// #region log-stage
// LogStage writes a stage entry to the run_log table.
func LogStage(db *sql.DB, entry StageEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO run_log (run_id, stage, status, records, detail, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Stage,
		entry.Status,
		entry.Records,
		nullIfEmpty(entry.Detail),
		entry.Elapsed.Milliseconds(),
		entry.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("log stage: %w", err)
	}
	return nil
}

// #endregion log-stage

// #region list-stages
// ListStages returns the entries of one run in the order they were written.
func ListStages(db *sql.DB, runID string) ([]StageEntry, error) {
	rows, err := db.Query(
		`SELECT run_id, stage, status, records, detail, elapsed_ms, created_at
		 FROM run_log WHERE run_id = ? ORDER BY id ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	var entries []StageEntry
	for rows.Next() {
		var e StageEntry
		var detail sql.NullString
		var elapsedMS int64
		var createdAt string
		if err := rows.Scan(&e.RunID, &e.Stage, &e.Status, &e.Records, &detail, &elapsedMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if detail.Valid {
			e.Detail = detail.String
		}
		e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		e.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion list-stages

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
