package tagger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"ytkit/internal/fileutil"
)

// Applied column values.
const (
	AppliedYes   = "YES"
	AppliedNo    = "NO"
	appliedError = "ERROR: "
)

const (
	logNameLayout = "rename_log_2006-01-02_15-04-05.csv"
	logTimeLayout = "2006-01-02T15:04:05"
	logGlob       = "rename_log_*.csv"
)

var logHeader = []string{"timestamp", "old_path", "new_path", "applied"}

// LogRow is one row of a rename log.
type LogRow struct {
	Timestamp string `json:"timestamp"`
	Old       string `json:"old_path"`
	New       string `json:"new_path"`
	Applied   string `json:"applied"`
}

// Failed reports whether the row records a failed rename.
func (r LogRow) Failed() bool {
	return strings.HasPrefix(r.Applied, appliedError)
}

func (r LogRow) record() []string {
	return []string{r.Timestamp, r.Old, r.New, r.Applied}
}

// WriteLog records entries as a new CSV log in the log directory, every row
// marked NO, and returns its path. An existing log with the same timestamp
// is never overwritten.
func (t *Tagger) WriteLog(entries []Entry) (string, error) {
	dir := t.logDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve log dir: %w", err)
		}
		dir = wd
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	now := t.now()
	path := fileutil.UniquePath(filepath.Join(dir, now.Format(logNameLayout)))
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create rename log: %w", err)
	}
	rows := make([]LogRow, len(entries))
	stamp := now.Format(logTimeLayout)
	for i, entry := range entries {
		rows[i] = LogRow{Timestamp: stamp, Old: entry.Old, New: entry.New, Applied: AppliedNo}
	}
	if err := writeRows(file, rows); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("write rename log: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close rename log: %w", err)
	}
	return path, nil
}

func writeRows(w io.Writer, rows []LogRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(logHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadLog parses a rename log. Columns are located by header name.
func ReadLog(path string) ([]LogRow, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrLogNotFound, path)
		}
		return nil, fmt.Errorf("open rename log: %w", err)
	}
	defer file.Close()

	cr := csv.NewReader(file)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read rename log header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{"old_path", "new_path"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("rename log %s: missing %q column", path, required)
		}
	}
	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []LogRow
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("read rename log: %w", err)
		}
		rows = append(rows, LogRow{
			Timestamp: field(record, "timestamp"),
			Old:       field(record, "old_path"),
			New:       field(record, "new_path"),
			Applied:   field(record, "applied"),
		})
	}
	return rows, nil
}

// LatestLog returns the most recently modified rename log in dir.
func LatestLog(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, logGlob))
	if err != nil {
		return "", err
	}
	type candidate struct {
		path string
		mod  time.Time
	}
	var found []candidate
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		found = append(found, candidate{path: match, mod: info.ModTime()})
	}
	if len(found) == 0 {
		return "", fmt.Errorf("%w in %s", ErrLogNotFound, dir)
	}
	slices.SortFunc(found, func(a, b candidate) int {
		if c := a.mod.Compare(b.mod); c != 0 {
			return c
		}
		return strings.Compare(a.path, b.path)
	})
	return found[len(found)-1].path, nil
}
