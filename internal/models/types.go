package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MediaType discriminates the Media variants
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeShow  MediaType = "show"
)

// ParseMediaType parses a discriminator tag
func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(strings.ToLower(strings.TrimSpace(s))) {
	case MediaTypeMovie:
		return MediaTypeMovie, nil
	case MediaTypeShow:
		return MediaTypeShow, nil
	}
	return "", fmt.Errorf("%w: unknown media type %q", ErrValidation, s)
}

// VoteValue is the tri-state score of a single participant. The zero value is VoteUnset.
type VoteValue int8

const (
	VoteUnset VoteValue = iota
	VoteNegative
	VoteNeutral
	VotePositive
)

// Display glyphs used by the backlog grid
const (
	LabelNegative = "🔴"
	LabelNeutral  = "🟡"
	LabelPositive = "🟢"
	LabelUnset    = "⬤"
)

// VoteFromScore converts -1, 0 or 1 to a VoteValue
func VoteFromScore(score int) (VoteValue, error) {
	switch score {
	case -1:
		return VoteNegative, nil
	case 0:
		return VoteNeutral, nil
	case 1:
		return VotePositive, nil
	}
	return VoteUnset, fmt.Errorf("%w: vote value %d outside {-1, 0, 1}", ErrValidation, score)
}

// ParseVoteLabel converts a display glyph back to a VoteValue
func ParseVoteLabel(label string) (VoteValue, error) {
	switch label {
	case LabelNegative:
		return VoteNegative, nil
	case LabelNeutral:
		return VoteNeutral, nil
	case LabelPositive:
		return VotePositive, nil
	case LabelUnset, "":
		return VoteUnset, nil
	}
	return VoteUnset, fmt.Errorf("%w: unknown vote label %q", ErrValidation, label)
}

// Score returns the numeric score, false when the vote is unset
func (v VoteValue) Score() (int, bool) {
	switch v {
	case VoteNegative:
		return -1, true
	case VoteNeutral:
		return 0, true
	case VotePositive:
		return 1, true
	}
	return 0, false
}

// IsSet reports whether the participant has voted
func (v VoteValue) IsSet() bool {
	_, ok := v.Score()
	return ok
}

// Valid reports whether v is one of the four known values
func (v VoteValue) Valid() bool {
	return v >= VoteUnset && v <= VotePositive
}

// Label returns the display glyph
func (v VoteValue) Label() string {
	switch v {
	case VoteNegative:
		return LabelNegative
	case VoteNeutral:
		return LabelNeutral
	case VotePositive:
		return LabelPositive
	}
	return LabelUnset
}

func (v VoteValue) String() string {
	if score, ok := v.Score(); ok {
		return fmt.Sprintf("%d", score)
	}
	return "unset"
}

// MarshalJSON encodes the score as -1, 0, 1 or null
func (v VoteValue) MarshalJSON() ([]byte, error) {
	score, ok := v.Score()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(score)
}

// UnmarshalJSON accepts -1, 0, 1, null or one of the display glyphs
func (v *VoteValue) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*v = VoteUnset
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		parsed, err := ParseVoteLabel(label)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	}

	var score int
	if err := json.Unmarshal(data, &score); err != nil {
		return fmt.Errorf("%w: vote value %s is not a number", ErrValidation, raw)
	}
	parsed, err := VoteFromScore(score)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

const dateLayout = "2006-01-02"

// Date is a calendar day (scheduled_on, viewed_on)
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: date must be a string", ErrValidation)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
