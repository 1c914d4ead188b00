package logging

import "log/slog"

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSystem is the standardized key for the system being reconciled (e.g. "Nintendo Entertainment System").
	FieldSystem = "system"
	// FieldRunID is the standardized key for the per-run correlation identifier.
	FieldRunID = "run_id"
	// FieldWanted is the canonical name of the wanted manifest entry.
	FieldWanted = "wanted"
	// FieldSource is the candidate container path.
	FieldSource = "source"
	// FieldMember is the member name inside a candidate container.
	FieldMember = "member"
	// FieldFingerprint is the CRC-32 content fingerprint.
	FieldFingerprint = "fingerprint"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step for an operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// WithRun returns a logger tagged with the system and run identifier.
func WithRun(logger *slog.Logger, system, runID string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	attrs := make([]any, 0, 2)
	if system != "" {
		attrs = append(attrs, String(FieldSystem, system))
	}
	if runID != "" {
		attrs = append(attrs, String(FieldRunID, runID))
	}
	if len(attrs) == 0 {
		return logger
	}
	return logger.With(attrs...)
}
