package batch

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Summary is the final tally of a batch operation.
type Summary struct {
	Succeeded   int            `json:"succeeded"`
	Skipped     int            `json:"skipped"`
	Errored     int            `json:"errored"`
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`
	Cancelled   bool           `json:"cancelled"`
}

// Skip counts one skipped item under reason.
func (s *Summary) Skip(reason string) {
	s.Skipped++
	if reason == "" {
		return
	}
	if s.SkipReasons == nil {
		s.SkipReasons = make(map[string]int)
	}
	s.SkipReasons[reason]++
}

// Total returns the number of items accounted for.
func (s Summary) Total() int {
	return s.Succeeded + s.Skipped + s.Errored
}

// String renders "3 succeeded, 2 skipped (no_anchor=2), 0 errored".
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d succeeded, %d skipped", s.Succeeded, s.Skipped)
	if len(s.SkipReasons) > 0 {
		reasons := slices.Sorted(maps.Keys(s.SkipReasons))
		parts := make([]string, 0, len(reasons))
		for _, reason := range reasons {
			parts = append(parts, fmt.Sprintf("%s=%d", reason, s.SkipReasons[reason]))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	fmt.Fprintf(&b, ", %d errored", s.Errored)
	if s.Cancelled {
		b.WriteString(" [cancelled]")
	}
	return b.String()
}

// ItemError records a per-item failure that did not abort the batch.
type ItemError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}
