package models

import (
	"fmt"
	"strings"
)

// Roster is the fixed, ordered set of participants allowed to vote
type Roster []string

// NewRoster validates a participant list: non-empty, no blanks, no duplicates
func NewRoster(names []string) (Roster, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: roster is empty", ErrValidation)
	}

	seen := make(map[string]bool, len(names))
	roster := make(Roster, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: roster contains a blank name", ErrValidation)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: participant %q listed twice", ErrValidation, name)
		}
		seen[name] = true
		roster = append(roster, name)
	}

	return roster, nil
}

// Contains reports whether name is a roster participant
func (r Roster) Contains(name string) bool {
	for _, p := range r {
		if p == name {
			return true
		}
	}
	return false
}
