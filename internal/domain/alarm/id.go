package alarm

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is the stable identity of an alarm. It is assigned on first persist and
// never changes afterwards, so references between alarms survive renames and
// reordering.
type ID uuid.UUID

// NilID is the zero identity of an alarm that has not been persisted yet.
//
//nolint:gochecknoglobals // Immutable sentinel value.
var NilID ID

// NewID generates a fresh random identity.
func NewID() ID {
	return ID(uuid.New())
}

// ParseID parses the canonical textual form of an identity.
func ParseID(s string) (ID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return NilID, fmt.Errorf("parse alarm id %q: %w", s, err)
	}

	return ID(parsed), nil
}

// IsZero reports whether the identity has not been assigned.
func (id ID) IsZero() bool {
	return id == NilID
}

// String returns the canonical textual form, or an empty string for NilID.
func (id ID) String() string {
	if id.IsZero() {
		return ""
	}

	return uuid.UUID(id).String()
}
