package batch

// Progress is a point-in-time report from a long-running operation.
type Progress struct {
	Total   int
	Done    int
	Message string
}

// Percent returns completion in the 0-100 range; 0 when Total is unknown.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	pct := float64(p.Done) / float64(p.Total) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// ProgressFunc receives progress reports. A nil ProgressFunc is valid and
// discards reports.
type ProgressFunc func(Progress)

// Report invokes f when it is non-nil.
func (f ProgressFunc) Report(total, done int, message string) {
	if f == nil {
		return
	}
	f(Progress{Total: total, Done: done, Message: message})
}

// Every reports when done is a multiple of interval, and always for the
// first and last item.
func (f ProgressFunc) Every(interval, total, done int, message string) {
	if f == nil {
		return
	}
	if interval <= 1 || done == 0 || done >= total || done%interval == 0 {
		f(Progress{Total: total, Done: done, Message: message})
	}
}
