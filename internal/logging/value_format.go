package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

const (
	consoleTimeLayout      = "2006-01-02 15:04:05"
	consoleDebugTimeLayout = "2006-01-02 15:04:05.000"
)

// formatTimestamp renders ts in local time, with milliseconds for debug headers.
func formatTimestamp(ts time.Time, debug bool) string {
	if ts.IsZero() {
		return ""
	}
	layout := consoleTimeLayout
	if debug {
		layout = consoleDebugTimeLayout
	}
	return ts.In(time.Local).Format(layout)
}

func attrString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return formatValue(v)
	}
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return formatTimestamp(v.Time(), false)
	case slog.KindString, slog.KindAny:
		return quoteIfNeeded(attrString(v))
	default:
		return quoteIfNeeded(v.String())
	}
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r < ' ' || r == '"' {
			return strconv.Quote(s)
		}
	}
	return s
}
