package domain

import "time"

// ImportSummary is the outcome of one pipeline run.
// RowsInserted counts attempted writes; rows dropped by the storage
// conflict rule are still counted.
type ImportSummary struct {
	FilesProcessed int  `json:"files_processed"`
	RowsInserted   int  `json:"rows_inserted"`
	RowsSkipped    int  `json:"rows_skipped"`
	AlreadyLoaded  bool `json:"already_loaded"`
}

type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
)

// ImportRun is the observable state of a triggered run.
type ImportRun struct {
	ID         string        `json:"id"`
	State      RunState      `json:"state"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Summary    ImportSummary `json:"summary"`
	Error      string        `json:"error,omitempty"`
}
