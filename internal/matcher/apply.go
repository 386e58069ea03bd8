package matcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"ytkit/internal/batch"
	"ytkit/internal/fileutil"
	"ytkit/internal/logging"
)

// Result is the outcome of one rename operation.
type Result string

const (
	ResultOK          Result = "ok"
	ResultOverwritten Result = "overwritten"
	ResultSkipped     Result = "skipped"
	ResultError       Result = "error"
)

// Moved reports whether the operation moved a file and is therefore undoable.
func (r Result) Moved() bool {
	return r == ResultOK || r == ResultOverwritten
}

// Op is one executed or skipped rename as recorded in the undo log.
type Op struct {
	Src    string  `json:"src"`
	Dst    string  `json:"dst"`
	Result Result  `json:"result"`
	Error  *string `json:"error"`
}

// ErrorMessage returns the recorded error, or "".
func (o Op) ErrorMessage() string {
	if o.Error == nil {
		return ""
	}
	return *o.Error
}

// ApplyResult reports what Apply did.
type ApplyResult struct {
	Ops     []Op          `json:"ops"`
	LogPath string        `json:"log_path,omitempty"`
	Summary batch.Summary `json:"summary"`
}

const applyProgressInterval = 20

// Apply executes the plan's eligible rows under mode and writes the undo log
// into the plan folder, replacing the previous one even when no row ran.
// Ineligible rows are recorded as skipped. A cancelled context stops before
// the next row; the log still covers executed rows.
func (m *Matcher) Apply(ctx context.Context, plan Plan, mode batch.Collision, progress batch.ProgressFunc) (ApplyResult, error) {
	if !mode.Valid() {
		return ApplyResult{}, batch.ErrInvalidCollision
	}
	logger := logging.WithContext(ctx, m.logger)
	result := ApplyResult{Ops: make([]Op, 0, len(plan.Rows))}
	total := len(plan.Rows)
	progress.Report(total, 0, "renaming")

	for i, row := range plan.Rows {
		if ctx.Err() != nil {
			result.Summary.Cancelled = true
			break
		}
		op := m.applyRow(row, mode)
		switch op.Result {
		case ResultOK, ResultOverwritten:
			result.Summary.Succeeded++
			logger.Debug("renamed media",
				logging.String(logging.FieldPath, op.Src),
				logging.String(logging.FieldTarget, op.Dst),
				logging.String("result", string(op.Result)),
			)
		case ResultSkipped:
			result.Summary.Skip(skipReason(row))
		case ResultError:
			result.Summary.Errored++
			logging.WarnWithContext(logger, "rename failed", "match_rename_failed",
				logging.String(logging.FieldPath, op.Src),
				logging.String(logging.FieldTarget, op.Dst),
				logging.String("error", op.ErrorMessage()),
				logging.String(logging.FieldImpact, "media file kept its original name"),
				logging.String(logging.FieldErrorHint, "check permissions and free space on the target folder"),
			)
		}
		result.Ops = append(result.Ops, op)
		progress.Every(applyProgressInterval, total, i+1, filepath.Base(row.Media))
	}

	logPath, err := writeUndoLog(plan.Folder, result.Ops, time.Now())
	if err != nil {
		return result, err
	}
	result.LogPath = logPath

	logger.Info("apply complete",
		logging.String(logging.FieldEventType, "match_apply_complete"),
		logging.String(logging.FieldRoot, plan.Folder),
		logging.String("collision", mode.String()),
		logging.Int("succeeded", result.Summary.Succeeded),
		logging.Int("skipped", result.Summary.Skipped),
		logging.Int("errored", result.Summary.Errored),
		logging.Bool("cancelled", result.Summary.Cancelled),
		logging.String(logging.FieldLogPath, result.LogPath),
	)
	return result, nil
}

func (m *Matcher) applyRow(row Row, mode batch.Collision) Op {
	op := Op{Src: row.Media, Dst: row.Target}
	if !row.Eligible() {
		op.Result = ResultSkipped
		return op
	}
	var err error
	if fileutil.Exists(row.Target) {
		switch mode {
		case batch.CollisionSkip:
			op.Result = ResultSkipped
			return op
		case batch.CollisionOverwrite:
			if err = os.Rename(row.Media, row.Target); err == nil {
				op.Result = ResultOverwritten
			}
		case batch.CollisionSuffix:
			op.Dst = fileutil.UniquePath(row.Target)
			if err = fileutil.RenameNoReplace(row.Media, op.Dst); err == nil {
				op.Result = ResultOK
			}
		}
	} else if err = fileutil.RenameNoReplace(row.Media, row.Target); err == nil {
		op.Result = ResultOK
	}
	if err != nil {
		msg := err.Error()
		op.Result = ResultError
		op.Error = &msg
	}
	return op
}

func skipReason(row Row) string {
	switch {
	case row.Status != StatusReady:
		return string(row.Status)
	case row.Target == row.Media:
		return "unchanged"
	default:
		return "collision"
	}
}

// errIsMissing reports whether err means a path does not exist.
func errIsMissing(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
