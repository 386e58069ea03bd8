package jobs

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"ytkit/internal/batch"
	"ytkit/internal/logging"
)

// ErrBusy is returned when an operation is already in flight.
var ErrBusy = errors.New("a task is running")

const progressBuffer = 64

// Func is a cancellable unit of work that reports progress.
type Func func(ctx context.Context, progress batch.ProgressFunc) error

// Runner serializes operations for one engine instance.
type Runner struct {
	name    string
	lockDir string
	logger  *slog.Logger

	running atomic.Bool
	mu      sync.Mutex
	current *Job
}

// NewRunner returns a Runner. An empty lockDir disables the cross-process
// lock.
func NewRunner(name, lockDir string, logger *slog.Logger) *Runner {
	return &Runner{
		name:    name,
		lockDir: lockDir,
		logger:  logging.NewComponentLogger(logger, "jobs"),
	}
}

// Running reports whether an operation is in flight.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Current returns the in-flight job, or nil.
func (r *Runner) Current() *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Cancel requests cancellation of the in-flight job, if any.
func (r *Runner) Cancel() bool {
	job := r.Current()
	if job == nil {
		return false
	}
	job.Cancel()
	return true
}

// LockPath returns the lock file used for key.
func (r *Runner) LockPath(key string) string {
	if r.lockDir == "" {
		return ""
	}
	sum := sha1.Sum([]byte(key))
	return filepath.Join(r.lockDir, fmt.Sprintf("%s-%s.lock", r.name, hex.EncodeToString(sum[:])[:12]))
}

// Start launches fn in the background. key identifies the resource the
// operation works on, normally its absolute root.
func (r *Runner) Start(ctx context.Context, key string, fn Func) (*Job, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	lock, err := r.acquire(key)
	if err != nil {
		r.running.Store(false)
		return nil, err
	}

	id := uuid.NewString()
	jobCtx, cancel := context.WithCancel(logging.WithRunID(ctx, id))
	job := &Job{
		ID:       id,
		Key:      key,
		progress: make(chan batch.Progress, progressBuffer),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
	r.mu.Lock()
	r.current = job
	r.mu.Unlock()

	logger := logging.WithContext(jobCtx, r.logger)
	logger.Debug("job started", logging.String("runner", r.name), logging.String(logging.FieldRoot, key))
	go func() {
		defer cancel()
		job.err = run(jobCtx, fn, job.report)
		close(job.progress)
		if lock != nil {
			if err := lock.Unlock(); err != nil {
				logger.Warn("failed to release job lock", logging.Error(err))
			}
		}
		r.mu.Lock()
		r.current = nil
		r.mu.Unlock()
		r.running.Store(false)
		logger.Debug("job finished", logging.String("runner", r.name), logging.Bool("failed", job.err != nil))
		close(job.done)
	}()
	return job, nil
}

func (r *Runner) acquire(key string) (*flock.Flock, error) {
	path := r.LockPath(key)
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(r.lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: another ytkit process holds %s", ErrBusy, path)
	}
	return lock, nil
}

func run(ctx context.Context, fn Func, progress batch.ProgressFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job panicked: %v", rec)
		}
	}()
	return fn(ctx, progress)
}
