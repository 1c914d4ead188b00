package history

import "time"

// OutcomeStatus is what happened to one match during a run.
type OutcomeStatus string

const (
	OutcomeMaterialized OutcomeStatus = "materialized"
	OutcomeExists       OutcomeStatus = "exists"
	OutcomeFailed       OutcomeStatus = "failed"
	OutcomeDryRun       OutcomeStatus = "dry_run"
)

// Run summarises one reconciliation of one system.
type Run struct {
	ID           string
	System       string
	DryRun       bool
	StartedAt    time.Time
	FinishedAt   time.Time
	Wanted       int
	Held         int
	Exact        int
	Fuzzy        int
	Review       int
	Materialized int
	Failed       int
	ErrorMessage string
}

// Finished reports whether the run reached FinishRun.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Outcome records a single match and what the materializer did with it.
type Outcome struct {
	ID           int64
	RunID        string
	Wanted       string
	Fingerprint  string
	SourcePath   string
	SourceMember string
	Destination  string
	Kind         string
	Confidence   float64
	Status       OutcomeStatus
	ErrorMessage string
	CreatedAt    time.Time
}

// DatabaseHealth captures diagnostic information about the history database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	IntegrityCheck   bool
	TotalRuns        int
	Error            string
}
