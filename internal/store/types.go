package store

import "time"

// #region run-status
// RunStatus is the lifecycle state of a recorded run.
type RunStatus string

const (
	StatusRunning RunStatus = "running"
	StatusDone    RunStatus = "done"
	StatusFailed  RunStatus = "failed"
)

// #endregion run-status

// #region run-record
// RunRecord is one pipeline run as stored in the runs table.
type RunRecord struct {
	RunID       string
	ParentID    string // previous run over the same base directory
	BaseDir     string
	Seeding     string
	ConfigJSON  string
	Status      RunStatus
	CreatedAt   time.Time
	FinishedAt  time.Time
	SummaryJSON string
}

// #endregion run-record
