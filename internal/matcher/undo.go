package matcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"ytkit/internal/batch"
	"ytkit/internal/fileutil"
	"ytkit/internal/logging"
)

const undoTimeLayout = "2006-01-02 15:04:05"

// UndoLog is the persisted record of one Apply call.
type UndoLog struct {
	Time string `json:"time"`
	Ops  []Op   `json:"ops"`
}

// UndoResult reports what Undo did.
type UndoResult struct {
	LogPath  string            `json:"log_path"`
	LoggedAt string            `json:"logged_at"`
	Undone   int               `json:"undone"`
	Errors   []batch.ItemError `json:"errors,omitempty"`
	Summary  batch.Summary     `json:"summary"`
}

// OK reports whether every replayed operation succeeded.
func (r UndoResult) OK() bool {
	return len(r.Errors) == 0
}

func writeUndoLog(folder string, ops []Op, now time.Time) (string, error) {
	payload, err := json.MarshalIndent(UndoLog{Time: now.Format(undoTimeLayout), Ops: ops}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode undo log: %w", err)
	}
	path := filepath.Join(folder, UndoLogName)
	if err := fileutil.WriteFileAtomic(path, append(payload, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write undo log: %w", err)
	}
	return path, nil
}

// ReadUndoLog loads the undo log for folder, falling back to the legacy name.
func ReadUndoLog(folder string) (UndoLog, string, error) {
	for _, name := range []string{UndoLogName, legacyUndoLogName} {
		path := filepath.Join(folder, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if errIsMissing(err) {
				continue
			}
			return UndoLog{}, path, fmt.Errorf("read undo log: %w", err)
		}
		var log UndoLog
		if err := json.Unmarshal(data, &log); err != nil {
			return UndoLog{}, path, fmt.Errorf("parse undo log %s: %w", path, err)
		}
		return log, path, nil
	}
	return UndoLog{}, "", fmt.Errorf("%s: %w", folder, ErrNoUndoLog)
}

// Undo replays the folder's undo log in reverse, moving each renamed file
// back to its source path (or a disambiguated sibling when that path is now
// taken). Operations that never moved a file are not replayed. The log is
// kept, so a second Undo finds nothing left to move.
func (m *Matcher) Undo(ctx context.Context, folder string, progress batch.ProgressFunc) (UndoResult, error) {
	root, err := resolveFolder(folder)
	if err != nil {
		return UndoResult{}, err
	}
	log, logPath, err := ReadUndoLog(root)
	if err != nil {
		return UndoResult{}, err
	}
	logger := logging.WithContext(ctx, m.logger)
	result := UndoResult{LogPath: logPath, LoggedAt: log.Time}

	ops := slices.Clone(log.Ops)
	slices.Reverse(ops)
	total := len(ops)
	progress.Report(total, 0, "undoing")
	for i, op := range ops {
		if ctx.Err() != nil {
			result.Summary.Cancelled = true
			break
		}
		switch {
		case !op.Result.Moved() || op.Dst == "":
			result.Summary.Skip("not_renamed")
		case !fileutil.Exists(op.Dst):
			result.Summary.Skip("missing")
		default:
			back := op.Src
			if fileutil.Exists(back) {
				back = fileutil.UniquePath(back)
			}
			if err := fileutil.RenameNoReplace(op.Dst, back); err != nil {
				result.Errors = append(result.Errors, batch.ItemError{Path: op.Dst, Message: err.Error()})
				result.Summary.Errored++
				logging.WarnWithContext(logger, "undo rename failed", "match_undo_failed",
					logging.String(logging.FieldPath, op.Dst),
					logging.String(logging.FieldTarget, back),
					logging.Error(err),
					logging.String(logging.FieldImpact, "file keeps its matched name"),
				)
				break
			}
			result.Undone++
			result.Summary.Succeeded++
		}
		progress.Every(applyProgressInterval, total, i+1, filepath.Base(op.Dst))
	}

	logger.Info("undo complete",
		logging.String(logging.FieldEventType, "match_undo_complete"),
		logging.String(logging.FieldRoot, root),
		logging.String(logging.FieldLogPath, logPath),
		logging.Int("succeeded", result.Summary.Succeeded),
		logging.Int("skipped", result.Summary.Skipped),
		logging.Int("errored", result.Summary.Errored),
		logging.Bool("cancelled", result.Summary.Cancelled),
	)
	return result, nil
}
