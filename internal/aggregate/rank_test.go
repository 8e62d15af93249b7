package aggregate

import (
	"testing"

	"github.com/amaumene/moviepick/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankForTonight(t *testing.T) {
	day, err := models.ParseDate("2024-06-01")
	require.NoError(t, err)

	viewed := movie(3, "Seen", 1, 1, 1, 1)
	viewed.Viewed = true
	scheduled := movie(4, "Booked", 1, 1, 1, 1)
	scheduled.ScheduledOn = &day

	records := []*models.Media{
		movie(1, "Low", -1, -1, 0, 0),
		movie(2, "Incomplete", 1, 1, 1),
		viewed,
		scheduled,
		movie(5, "High", 1, 1, 1, 0),
		movie(6, "MidA", 1, 0, 0, 0),
		movie(7, "MidB", 0, 1, 0, 0),
	}

	ranked := RankForTonight(records, roster)
	assert.Equal(t, []string{"High", "MidA", "MidB", "Low"}, names(ranked))

	for i, row := range ranked {
		assert.False(t, row.Viewed)
		assert.False(t, row.MissingVotes)
		assert.Nil(t, row.ScheduledOn)
		if i > 0 {
			assert.GreaterOrEqual(t, *ranked[i-1].VotesAvg, *row.VotesAvg)
		}
	}
}

func TestRankForTonightStableTies(t *testing.T) {
	records := []*models.Media{
		movie(1, "B", 1, 0, 0, 0),
		movie(2, "A", 0, 0, 0, 1),
		movie(3, "C", 0, 1, 0, 0),
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, []string{"B", "A", "C"}, names(RankForTonight(records, roster)))
	}
}

func TestRankForTonightWithTypeFilter(t *testing.T) {
	show := models.NewShow("Dark", "plue", models.Ordinal{Order: 1})
	for _, u := range roster {
		show.SetVote(u, models.VotePositive)
	}
	records := []*models.Media{movie(1, "Alien", 0, 0, 0, 0), show}

	assert.Equal(t, []string{"Dark"}, names(RankForTonight(records, roster, TypeIn(models.MediaTypeShow))))
}

func TestRankForTonightNothingEligible(t *testing.T) {
	ranked := RankForTonight([]*models.Media{movie(1, "Heat", 1)}, roster)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}
