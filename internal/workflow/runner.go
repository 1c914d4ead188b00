package workflow

import (
	"log/slog"
	"time"

	"github.com/beano38/retro-manager/internal/archive"
	"github.com/beano38/retro-manager/internal/config"
	"github.com/beano38/retro-manager/internal/history"
	"github.com/beano38/retro-manager/internal/logging"
	"github.com/beano38/retro-manager/internal/materialize"
)

// Runner reconciles systems against their manifests.
type Runner struct {
	cfg      *config.Config
	store    *history.Store
	logger   *slog.Logger
	archiver materialize.Archiver
	now      func() time.Time
}

// RunnerOption configures optional Runner behavior.
type RunnerOption func(*Runner)

// WithArchiver replaces the archive inspector built from config.
func WithArchiver(a materialize.Archiver) RunnerOption {
	return func(r *Runner) {
		if a != nil {
			r.archiver = a
		}
	}
}

// WithClock overrides the time source used for review files.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner constructs a runner. store may be nil, in which case nothing is
// recorded in the run history.
func NewRunner(cfg *config.Config, store *history.Store, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		cfg:    cfg,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.archiver == nil {
		r.archiver = archive.NewInspector(
			archive.WithSevenZip(cfg.Tools.SevenZip),
			archive.WithUnrar(cfg.Tools.Unrar),
			archive.WithPassword(cfg.Archive.Password),
			archive.WithLogger(logger),
		)
	}
	return r
}

// RunOptions are per-invocation overrides of the configured behaviour.
type RunOptions struct {
	DryRun    bool
	NoFuzzy   bool
	Overwrite bool
}

// Outcome is what happened to one match.
type Outcome struct {
	Wanted      string                `json:"wanted"`
	Kind        string                `json:"kind"`
	Confidence  float64               `json:"confidence"`
	Fingerprint string                `json:"fingerprint,omitempty"`
	Source      string                `json:"source"`
	Member      string                `json:"member"`
	Destination string                `json:"destination"`
	Status      history.OutcomeStatus `json:"status"`
	Error       string                `json:"error,omitempty"`
}

// SystemReport summarises one system's run.
type SystemReport struct {
	System       string        `json:"system"`
	RunID        string        `json:"run_id"`
	DryRun       bool          `json:"dry_run"`
	Wanted       int           `json:"wanted"`
	Held         int           `json:"held"`
	Missing      int           `json:"missing"`
	Candidates   int           `json:"candidates"`
	Exact        int           `json:"exact"`
	Fuzzy        int           `json:"fuzzy"`
	Review       int           `json:"review"`
	Unmatched    int           `json:"unmatched"`
	Materialized int           `json:"materialized"`
	Existing     int           `json:"existing"`
	Failed       int           `json:"failed"`
	ReviewFile   string        `json:"review_file,omitempty"`
	Outcomes     []Outcome     `json:"outcomes"`
	Media        *MediaReport  `json:"media,omitempty"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration"`
	err          error
}

// MediaReport summarises the media sync that ran beside the ROM build.
type MediaReport struct {
	Copied  int `json:"copied"`
	Present int `json:"present"`
	Failed  int `json:"failed"`
	Missing int `json:"missing"`
}

// Err returns the error that stopped this system, if any.
func (r *SystemReport) Err() error {
	if r == nil {
		return nil
	}
	return r.err
}

func (r *SystemReport) fail(err error) {
	r.err = err
	if err != nil {
		r.Error = err.Error()
	}
}
