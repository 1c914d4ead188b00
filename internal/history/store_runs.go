package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

const runColumns = "id, system, dry_run, started_at, finished_at, wanted, held, exact_matches, fuzzy_matches, review_items, materialized, failed, error_message"

// StartRun inserts a new run for system and returns it with a fresh id.
func (s *Store) StartRun(ctx context.Context, system string, dryRun bool) (*Run, error) {
	if strings.TrimSpace(system) == "" {
		return nil, errors.New("start run: system is required")
	}
	run := &Run{
		ID:        uuid.NewString(),
		System:    system,
		DryRun:    dryRun,
		StartedAt: time.Now().UTC(),
	}
	err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, system, dry_run, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.System, boolToInt(dryRun), run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// RecordOutcome appends one match outcome to a run.
func (s *Store) RecordOutcome(ctx context.Context, o Outcome) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	err := s.execWithRetry(ctx,
		`INSERT INTO outcomes (
            run_id, wanted, fingerprint, source_path, source_member, destination,
            kind, confidence, status, error_message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.RunID,
		o.Wanted,
		nullableString(o.Fingerprint),
		nullableString(o.SourcePath),
		nullableString(o.SourceMember),
		nullableString(o.Destination),
		o.Kind,
		o.Confidence,
		string(o.Status),
		nullableString(o.ErrorMessage),
		o.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// FinishRun stores the final counters of run and stamps its finish time.
func (s *Store) FinishRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("finish run: nil run")
	}
	run.FinishedAt = time.Now().UTC()
	err := s.execWithRetry(ctx,
		`UPDATE runs SET finished_at = ?, wanted = ?, held = ?, exact_matches = ?, fuzzy_matches = ?,
            review_items = ?, materialized = ?, failed = ?, error_message = ?
        WHERE id = ?`,
		run.FinishedAt.Format(timeLayout),
		run.Wanted,
		run.Held,
		run.Exact,
		run.Fuzzy,
		run.Review,
		run.Materialized,
		run.Failed,
		nullableString(run.ErrorMessage),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// GetRun fetches a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// RecentRuns returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Outcomes lists the outcomes of a run in insertion order.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, wanted, fingerprint, source_path, source_member, destination,
            kind, confidence, status, error_message, created_at
        FROM outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var (
			o                                         Outcome
			fp, source, member, destination, errorMsg sql.NullString
			status                                    string
			createdRaw                                sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.RunID, &o.Wanted, &fp, &source, &member, &destination,
			&o.Kind, &o.Confidence, &status, &errorMsg, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Fingerprint = fp.String
		o.SourcePath = source.String
		o.SourceMember = member.String
		o.Destination = destination.String
		o.Status = OutcomeStatus(status)
		o.ErrorMessage = errorMsg.String
		o.CreatedAt = parseTime(createdRaw)
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		dryRun      int
		startedRaw  sql.NullString
		finishedRaw sql.NullString
		errorMsg    sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.System,
		&dryRun,
		&startedRaw,
		&finishedRaw,
		&run.Wanted,
		&run.Held,
		&run.Exact,
		&run.Fuzzy,
		&run.Review,
		&run.Materialized,
		&run.Failed,
		&errorMsg,
	); err != nil {
		return nil, err
	}
	run.DryRun = dryRun != 0
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishedRaw)
	run.ErrorMessage = errorMsg.String
	return &run, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
