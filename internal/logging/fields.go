package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering ("rename_failed", "plan_complete").
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for a failure.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldRunID correlates every line emitted by one batch run.
	FieldRunID = "run_id"
	// FieldRoot is the folder or tree an engine operates on.
	FieldRoot = "root"
	// FieldPath is the file an item-level line refers to.
	FieldPath = "path"
	// FieldTarget is the rename destination for an item-level line.
	FieldTarget = "target"
	// FieldAction names the engine action (scan, apply, undo, plan, revert).
	FieldAction = "action"
	// FieldLogPath points at the undo or rename log written by a run.
	FieldLogPath = "log_path"
)
