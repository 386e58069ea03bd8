package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no run matches a lookup.
var ErrNotFound = errors.New("no matching run")

// ErrAmbiguousID is returned when an id prefix matches more than one run.
var ErrAmbiguousID = errors.New("id prefix matches several runs")

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	defaultListLimit        = 20
)

const runColumns = "id, engine, action, root, log_path, started_at, finished_at, succeeded, skipped, errored, cancelled, error_message"

// Open creates or connects to the history database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts run, assigning an ID and start time when missing, and
// returns the stored copy.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.Engine == "" || run.Action == "" {
		return Run{}, errors.New("run requires engine and action")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	err := s.execWithRetry(ctx,
		"INSERT INTO runs ("+runColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		run.ID,
		string(run.Engine),
		string(run.Action),
		run.Root,
		nullableString(run.LogPath),
		formatTime(run.StartedAt),
		nullableTime(run.FinishedAt),
		run.Succeeded,
		run.Skipped,
		run.Errored,
		boolToInt(run.Cancelled),
		nullableString(run.ErrorMessage),
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

// Get returns the run with id. A unique prefix of an id is accepted too, so
// the shortened IDs printed by the CLI resolve.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, "%_") {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id LIKE ? LIMIT 2", id+"%")
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()
	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, fmt.Errorf("scan run: %w", err)
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	switch len(matches) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return Run{}, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
}

// List returns runs newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Run, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Engine != "" {
		clauses = append(clauses, "engine = ?")
		args = append(args, string(filter.Engine))
	}
	if filter.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, string(filter.Action))
	}
	query := "SELECT " + runColumns + " FROM runs"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += " ORDER BY started_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestLog returns the log path of the newest run of engine/action that
// recorded one.
func (s *Store) LatestLog(ctx context.Context, engine Engine, action Action) (string, error) {
	var path string
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT log_path FROM runs WHERE engine = ? AND action = ? AND log_path IS NOT NULL AND log_path != '' ORDER BY started_at DESC, rowid DESC LIMIT 1",
		string(engine), string(action),
	).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s %s", ErrNotFound, engine, action)
	}
	if err != nil {
		return "", fmt.Errorf("latest log: %w", err)
	}
	return path, nil
}

// Prune deletes runs that started before cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE started_at < ?", formatTime(cutoff))
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return removed, nil
}
