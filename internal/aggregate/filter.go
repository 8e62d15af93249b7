package aggregate

import (
	"slices"

	"github.com/amaumene/moviepick/internal/models"
)

// Predicate selects rows
type Predicate func(Row) bool

// Filter keeps the rows satisfying every predicate, preserving order
func Filter(rows []Row, predicates ...Predicate) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if matches(row, predicates) {
			out = append(out, row)
		}
	}
	return out
}

func matches(row Row, predicates []Predicate) bool {
	for _, p := range predicates {
		if !p(row) {
			return false
		}
	}
	return true
}

// TypeIn matches rows of any of the given types. No types matches everything.
func TypeIn(types ...models.MediaType) Predicate {
	return func(r Row) bool {
		return len(types) == 0 || slices.Contains(types, r.Type)
	}
}

// ViewedIs matches the viewed flag
func ViewedIs(viewed bool) Predicate {
	return func(r Row) bool { return r.Viewed == viewed }
}

// MissingVotesIs matches rows by vote completeness
func MissingVotesIs(missing bool) Predicate {
	return func(r Row) bool { return r.MissingVotes == missing }
}

// EnabledIs matches the backlog enabled flag
func EnabledIs(enabled bool) Predicate {
	return func(r Row) bool { return r.Enabled == enabled }
}

// Scheduled matches rows by presence of a scheduled date
func Scheduled(scheduled bool) Predicate {
	return func(r Row) bool { return (r.ScheduledOn != nil) == scheduled }
}

// Eligible matches rows that can compete tonight
func Eligible() Predicate {
	return Row.Eligible
}
