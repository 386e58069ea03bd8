package tagger

import (
	"context"
	"path/filepath"

	"ytkit/internal/batch"
	"ytkit/internal/fileutil"
	"ytkit/internal/logging"
)

// Revert skip reasons.
const (
	SkipNotApplied = "not_applied"
	SkipMissing    = "missing"
)

// RevertResult reports what Revert did.
type RevertResult struct {
	LogPath string            `json:"log_path"`
	Errors  []batch.ItemError `json:"errors,omitempty"`
	Summary batch.Summary     `json:"summary"`
}

// Reverted is the number of files moved back.
func (r RevertResult) Reverted() int {
	return r.Summary.Succeeded
}

// Revert moves every YES row's new path back to its old path. Rows that were
// not applied or whose new path is gone are skipped. When the old path is
// occupied the file goes to the next free "(n)" name instead. Per-row
// failures are counted and logged; only a missing or unreadable log is an
// error.
func (t *Tagger) Revert(ctx context.Context, logPath string, progress batch.ProgressFunc) (RevertResult, error) {
	logger := logging.WithContext(ctx, t.logger)
	result := RevertResult{LogPath: logPath}
	rows, err := ReadLog(logPath)
	if err != nil {
		return result, err
	}

	total := len(rows)
	progress.Report(total, 0, "reverting")
	for i, row := range rows {
		if ctx.Err() != nil {
			result.Summary.Cancelled = true
			break
		}
		switch {
		case row.Applied != AppliedYes:
			result.Summary.Skip(SkipNotApplied)
		case row.New == "" || row.Old == "" || !fileutil.Exists(row.New):
			result.Summary.Skip(SkipMissing)
		default:
			back := fileutil.UniquePath(row.Old)
			if err := fileutil.RenameNoReplace(row.New, back); err != nil {
				result.Summary.Errored++
				result.Errors = append(result.Errors, batch.ItemError{Path: row.New, Message: err.Error()})
				logging.WarnWithContext(logger, "revert failed", "tags_revert_failed",
					logging.String(logging.FieldPath, row.New),
					logging.String(logging.FieldTarget, back),
					logging.Error(err),
				)
				break
			}
			result.Summary.Succeeded++
			logger.Debug("reverted file",
				logging.String(logging.FieldPath, row.New),
				logging.String(logging.FieldTarget, back),
			)
		}
		progress.Every(applyProgressInterval, total, i+1, filepath.Base(row.Old))
	}

	logger.Info("revert complete",
		logging.String(logging.FieldEventType, "tags_revert_complete"),
		logging.Int("reverted", result.Summary.Succeeded),
		logging.Int("skipped", result.Summary.Skipped),
		logging.Int("errored", result.Summary.Errored),
		logging.Bool("cancelled", result.Summary.Cancelled),
		logging.String(logging.FieldLogPath, logPath),
	)
	return result, nil
}
