package logging

import "time"

// #region stage-entry
// StageEntry is a single row in the run_log table.
type StageEntry struct {
	RunID     string
	Stage     string // "pass1" | "prune" | "classify" | "resolve" | "pass2" | "reverse" | "write"
	Status    string // "ok" | "failed"
	Records   int
	Detail    string
	Elapsed   time.Duration
	CreatedAt time.Time
}

// #endregion stage-entry
