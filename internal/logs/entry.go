package logs

import (
	"encoding/json"
	"strings"
)

// Entry is one decoded run log line.
type Entry struct {
	Time      string         `json:"ts"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	Component string         `json:"component,omitempty"`
	RunID     string         `json:"run_id,omitempty"`
	Fields    map[string]any `json:"-"`
	Raw       string         `json:"-"`
}

// Filter selects entries. Zero values match everything.
type Filter struct {
	RunID     string
	Component string
	MinLevel  string
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

func (f Filter) match(e Entry) bool {
	if f.RunID != "" && !strings.HasPrefix(e.RunID, f.RunID) {
		return false
	}
	if f.Component != "" && e.Component != f.Component {
		return false
	}
	if f.MinLevel != "" {
		want, ok := levelRank[strings.ToLower(f.MinLevel)]
		if ok && levelRank[e.Level] < want {
			return false
		}
	}
	return true
}

// parseEntry decodes line. Lines that are not JSON objects are kept as a
// message-only entry so nothing written to the log disappears.
func parseEntry(line string) Entry {
	entry := Entry{Raw: line}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		entry.Message = line
		return entry
	}
	entry.Time = stringField(fields, "ts")
	entry.Level = stringField(fields, "level")
	entry.Message = stringField(fields, "msg")
	entry.Component = stringField(fields, "component")
	entry.RunID = stringField(fields, "run_id")
	for _, key := range []string{"ts", "level", "msg", "component", "run_id"} {
		delete(fields, key)
	}
	entry.Fields = fields
	return entry
}

func stringField(fields map[string]any, key string) string {
	if value, ok := fields[key].(string); ok {
		return value
	}
	return ""
}
