package tagger

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"ytkit/internal/batch"
	"ytkit/internal/fileutil"
	"ytkit/internal/logging"
)

const applyProgressInterval = 20

// ApplyResult reports what Apply did. Rows mirror the rewritten log.
type ApplyResult struct {
	LogPath string            `json:"log_path"`
	Rows    []LogRow          `json:"rows"`
	Errors  []batch.ItemError `json:"errors,omitempty"`
	Summary batch.Summary     `json:"summary"`
}

// Apply renames each entry in order and rewrites the log at logPath so every
// row carries YES, NO, or "ERROR: <message>". Each row is flushed as soon as
// its rename finishes. On cancellation the remaining rows are written as NO.
// An existing target is replaced.
func (t *Tagger) Apply(ctx context.Context, entries []Entry, logPath string, progress batch.ProgressFunc) (ApplyResult, error) {
	logger := logging.WithContext(ctx, t.logger)
	result := ApplyResult{LogPath: logPath, Rows: make([]LogRow, 0, len(entries))}

	file, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return result, fmt.Errorf("open rename log: %w", err)
	}
	defer file.Close()
	cw := csv.NewWriter(file)
	writeRow := func(row LogRow) error {
		result.Rows = append(result.Rows, row)
		if err := cw.Write(row.record()); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	}
	if err := cw.Write(logHeader); err != nil {
		return result, fmt.Errorf("write rename log: %w", err)
	}

	total := len(entries)
	progress.Report(total, 0, "renaming")
	for i, entry := range entries {
		stamp := t.now().Format(logTimeLayout)
		if ctx.Err() != nil {
			result.Summary.Cancelled = true
			for _, rest := range entries[i:] {
				if err := writeRow(LogRow{Timestamp: stamp, Old: rest.Old, New: rest.New, Applied: AppliedNo}); err != nil {
					return result, fmt.Errorf("write rename log: %w", err)
				}
			}
			break
		}

		row := LogRow{Timestamp: stamp, Old: entry.Old, New: entry.New, Applied: AppliedYes}
		if err := renameEntry(entry); err != nil {
			row.Applied = appliedError + err.Error()
			result.Summary.Errored++
			result.Errors = append(result.Errors, batch.ItemError{Path: entry.Old, Message: err.Error()})
			logging.WarnWithContext(logger, "tag rename failed", "tags_rename_failed",
				logging.String(logging.FieldPath, entry.Old),
				logging.String(logging.FieldTarget, entry.New),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the target folder; revert still skips this row"),
			)
		} else {
			result.Summary.Succeeded++
			logger.Debug("tagged file",
				logging.String(logging.FieldPath, entry.Old),
				logging.String(logging.FieldTarget, entry.New),
			)
		}
		if err := writeRow(row); err != nil {
			return result, fmt.Errorf("write rename log: %w", err)
		}
		progress.Every(applyProgressInterval, total, i+1, filepath.Base(entry.New))
	}

	if err := file.Close(); err != nil {
		return result, fmt.Errorf("close rename log: %w", err)
	}
	logger.Info("apply complete",
		logging.String(logging.FieldEventType, "tags_apply_complete"),
		logging.Int("applied", result.Summary.Succeeded),
		logging.Int("errored", result.Summary.Errored),
		logging.Bool("cancelled", result.Summary.Cancelled),
		logging.String(logging.FieldLogPath, logPath),
	)
	return result, nil
}

func renameEntry(entry Entry) error {
	if err := os.MkdirAll(filepath.Dir(entry.New), 0o755); err != nil {
		return err
	}
	if fileutil.Exists(entry.New) {
		return os.Rename(entry.Old, entry.New)
	}
	return fileutil.RenameNoReplace(entry.Old, entry.New)
}
