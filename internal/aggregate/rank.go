package aggregate

import (
	"slices"

	"github.com/amaumene/moviepick/internal/models"
)

// RankForTonight keeps eligible rows and orders them by average, highest first.
// Equal averages keep their input order. Extra predicates narrow the set further.
func RankForTonight(records []*models.Media, roster models.Roster, predicates ...Predicate) []Row {
	rows := Filter(Aggregate(records, roster), append([]Predicate{Eligible()}, predicates...)...)

	slices.SortStableFunc(rows, func(a, b Row) int {
		// eligible rows always carry an average
		switch {
		case *a.VotesAvg > *b.VotesAvg:
			return -1
		case *a.VotesAvg < *b.VotesAvg:
			return 1
		}
		return 0
	})
	return rows
}
