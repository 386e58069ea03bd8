package jobs

import (
	"context"

	"ytkit/internal/batch"
)

// Job is one in-flight or finished operation.
type Job struct {
	ID  string
	Key string

	progress chan batch.Progress
	done     chan struct{}
	cancel   context.CancelFunc
	err      error
}

// Progress delivers progress reports. It is closed when the operation
// returns. When the consumer falls behind, older reports are dropped in
// favour of newer ones.
func (j *Job) Progress() <-chan batch.Progress {
	return j.progress
}

// Done is closed once the operation has returned and its lock is released.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the operation returns and yields its error.
func (j *Job) Wait() error {
	<-j.done
	return j.err
}

// Cancel asks the operation to stop at its next item boundary.
func (j *Job) Cancel() {
	j.cancel()
}

func (j *Job) report(p batch.Progress) {
	select {
	case j.progress <- p:
		return
	default:
	}
	select {
	case <-j.progress:
	default:
	}
	select {
	case j.progress <- p:
	default:
	}
}
