package models

import (
	"fmt"
	"strings"
	"time"
)

// Vote is one participant's score for a media item
type Vote struct {
	User  string    `json:"user"`
	Value VoteValue `json:"value"`
}

// Ordinal is an ordered position with an optional label (season, episode)
type Ordinal struct {
	Order int    `json:"order"`
	Label string `json:"label,omitempty"`
}

// Media is a backlog record, either a movie or a show.
// Movies may carry an Episode (saga chapter), shows must carry a Season.
type Media struct {
	ID   uint64    `boltholdKey:"ID" json:"id,omitempty"` // zero until persisted
	Type MediaType `boltholdIndex:"Type" json:"type"`
	Name string    `json:"name"`

	Viewed bool   `json:"viewed"`
	Votes  []Vote `json:"votes"`

	Notes       string `json:"notes,omitempty"`
	Reporter    string `json:"reporter"`
	ScheduledOn *Date  `json:"scheduled_on,omitempty"`
	ViewedOn    *Date  `json:"viewed_on,omitempty"`

	// Variant payload
	Episode *Ordinal `json:"episode,omitempty"`
	Season  *Ordinal `json:"season,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMovie builds an unsaved movie proposal
func NewMovie(name, reporter string, episode *Ordinal) *Media {
	return &Media{
		Type:     MediaTypeMovie,
		Name:     name,
		Reporter: reporter,
		Episode:  episode,
	}
}

// NewShow builds an unsaved show proposal
func NewShow(name, reporter string, season Ordinal) *Media {
	return &Media{
		Type:     MediaTypeShow,
		Name:     name,
		Reporter: reporter,
		Season:   &season,
	}
}

// Validate checks the record against the roster. Every failure wraps ErrValidation.
func (m *Media) Validate(roster Roster) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}

	switch m.Type {
	case MediaTypeMovie:
		if m.Season != nil {
			return fmt.Errorf("%w: movie %q cannot have a season", ErrValidation, m.Name)
		}
		if m.Episode != nil && m.Episode.Order < 0 {
			return fmt.Errorf("%w: episode order must be >= 0", ErrValidation)
		}
	case MediaTypeShow:
		if m.Season == nil {
			return fmt.Errorf("%w: show %q requires a season", ErrValidation, m.Name)
		}
		if m.Episode != nil {
			return fmt.Errorf("%w: show %q cannot have an episode", ErrValidation, m.Name)
		}
		if m.Season.Order < 0 {
			return fmt.Errorf("%w: season order must be >= 0", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown media type %q", ErrValidation, m.Type)
	}

	if !roster.Contains(m.Reporter) {
		return fmt.Errorf("%w: reporter %q is not in the roster", ErrValidation, m.Reporter)
	}

	seen := make(map[string]bool, len(m.Votes))
	for _, vote := range m.Votes {
		if !roster.Contains(vote.User) {
			return fmt.Errorf("%w: voter %q is not in the roster", ErrValidation, vote.User)
		}
		if seen[vote.User] {
			return fmt.Errorf("%w: %q voted twice on %q", ErrValidation, vote.User, m.Name)
		}
		seen[vote.User] = true
		if !vote.Value.Valid() {
			return fmt.Errorf("%w: invalid vote value from %q", ErrValidation, vote.User)
		}
	}

	return nil
}

// VoteOf returns the participant's vote, VoteUnset when absent
func (m *Media) VoteOf(user string) VoteValue {
	for _, vote := range m.Votes {
		if vote.User == user {
			return vote.Value
		}
	}
	return VoteUnset
}

// SetVote overwrites the participant's vote or appends a new one.
// Other participants' votes are left untouched.
func (m *Media) SetVote(user string, value VoteValue) {
	for i := range m.Votes {
		if m.Votes[i].User == user {
			m.Votes[i].Value = value
			return
		}
	}
	m.Votes = append(m.Votes, Vote{User: user, Value: value})
}

// Clone returns a deep copy
func (m *Media) Clone() *Media {
	c := *m
	c.Votes = append([]Vote(nil), m.Votes...)
	if m.ScheduledOn != nil {
		d := *m.ScheduledOn
		c.ScheduledOn = &d
	}
	if m.ViewedOn != nil {
		d := *m.ViewedOn
		c.ViewedOn = &d
	}
	if m.Episode != nil {
		e := *m.Episode
		c.Episode = &e
	}
	if m.Season != nil {
		s := *m.Season
		c.Season = &s
	}
	return &c
}
