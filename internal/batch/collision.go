package batch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCollision is returned when a collision mode string is not recognized.
var ErrInvalidCollision = errors.New("invalid collision mode")

// Collision governs what happens when a rename target already exists.
type Collision int

const (
	// CollisionSkip leaves both files alone.
	CollisionSkip Collision = iota
	// CollisionOverwrite replaces the existing target.
	CollisionOverwrite
	// CollisionSuffix disambiguates with " (n)" before the extension.
	CollisionSuffix
)

// String returns the canonical lowercase name.
func (c Collision) String() string {
	switch c {
	case CollisionSkip:
		return "skip"
	case CollisionOverwrite:
		return "overwrite"
	case CollisionSuffix:
		return "suffix"
	default:
		return fmt.Sprintf("collision(%d)", int(c))
	}
}

// Valid reports whether c is one of the defined modes.
func (c Collision) Valid() bool {
	return c >= CollisionSkip && c <= CollisionSuffix
}

// ParseCollision maps a user-supplied mode to a Collision. "unique" is an
// alias of "suffix".
func ParseCollision(raw string) (Collision, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "skip":
		return CollisionSkip, nil
	case "overwrite", "replace":
		return CollisionOverwrite, nil
	case "suffix", "unique":
		return CollisionSuffix, nil
	default:
		return CollisionSkip, fmt.Errorf("%w: %q (want skip, overwrite, or suffix)", ErrInvalidCollision, raw)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Collision) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCollision, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Collision) UnmarshalText(text []byte) error {
	parsed, err := ParseCollision(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
