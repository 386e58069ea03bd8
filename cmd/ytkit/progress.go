package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"ytkit/internal/batch"
	"ytkit/internal/logging"
)

// progressReporter draws a bar on a terminal and falls back to sampled log
// lines everywhere else.
type progressReporter struct {
	phase   string
	bar     *progressbar.ProgressBar
	sampler *logging.ProgressSampler
	logger  *slog.Logger
}

func newProgressReporter(w io.Writer, logger *slog.Logger, phase string) *progressReporter {
	r := &progressReporter{phase: phase, logger: logger}
	if isTerminal(w) {
		r.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(phase),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
		return r
	}
	r.sampler = logging.NewProgressSampler(10)
	return r
}

func (r *progressReporter) update(p batch.Progress) {
	if r.bar != nil {
		if p.Total > 0 && r.bar.GetMax() != p.Total {
			r.bar.ChangeMax(p.Total)
		}
		_ = r.bar.Set(p.Done)
		return
	}
	if !r.sampler.ShouldLog(r.phase, p) {
		return
	}
	r.logger.Info(r.phase+" progress",
		logging.String(logging.FieldEventType, "progress"),
		logging.Int("done", p.Done),
		logging.Int("total", p.Total),
		logging.String("current", p.Message),
	)
}

func (r *progressReporter) finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
