package language

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// None is the pseudo-language matching a caption without any language suffix.
const None = "none"

// ErrInvalidPreference is returned for tokens that are neither a language code nor "none".
var ErrInvalidPreference = errors.New("invalid language preference")

var preferenceTokenPattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]{2,8})?$`)

// Preferences is an ordered, duplicate-free list of caption languages. Earlier
// entries win.
type Preferences []string

// DefaultPreferences mirrors the toolkit's historical "vi,en,none" order.
func DefaultPreferences() Preferences {
	return Preferences{"vi", "en", None}
}

// ParsePreferences parses a comma or whitespace separated list such as "vi,en,none".
func ParsePreferences(raw string) (Preferences, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	return NewPreferences(fields)
}

// NewPreferences validates and normalizes tokens into Preferences.
func NewPreferences(tokens []string) (Preferences, error) {
	prefs := make(Preferences, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		if token != None && !preferenceTokenPattern.MatchString(token) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPreference, token)
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		prefs = append(prefs, token)
	}
	if len(prefs) == 0 {
		return nil, fmt.Errorf("%w: list is empty", ErrInvalidPreference)
	}
	return prefs, nil
}

// String renders the list in its parseable form.
func (p Preferences) String() string {
	return strings.Join(p, ",")
}
