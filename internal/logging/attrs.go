package logging

import (
	"log/slog"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Error records err under "error". A nil err is logged as an empty string.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags every line of logger with component. A nil logger
// yields a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

const (
	defaultErrorHint = `rerun with logging.level = "debug" for details`
	defaultImpact    = "item left unchanged; batch continued"
)

// WarnWithContext logs a per-item failure. event_type, error_hint and impact
// are filled in when attrs does not set them.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Warn(msg, eventArgs(attrs,
		String(FieldEventType, eventType),
		String(FieldErrorHint, defaultErrorHint),
		String(FieldImpact, defaultImpact),
	)...)
}

// ErrorWithContext logs a run-level failure with event_type and error_hint
// filled in when missing.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Error(msg, eventArgs(attrs,
		String(FieldEventType, eventType),
		String(FieldErrorHint, defaultErrorHint),
	)...)
}

// eventArgs appends each default whose key attrs does not already carry.
func eventArgs(attrs []Attr, defaults ...Attr) []any {
	args := make([]any, 0, len(attrs)+len(defaults))
	set := make(map[string]struct{}, len(attrs))
	for _, attr := range attrs {
		set[attr.Key] = struct{}{}
		args = append(args, attr)
	}
	for _, attr := range defaults {
		if _, ok := set[attr.Key]; !ok {
			args = append(args, attr)
		}
	}
	return args
}
