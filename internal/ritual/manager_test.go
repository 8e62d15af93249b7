package ritual

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestManagerStartAndGet(t *testing.T) {
	m := NewManager(roster)

	s, err := m.Start([]string{"X", "Y"})
	require.NoError(t, err)
	require.NotEmpty(t, s.ID())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())

	m.Remove(s.ID())
	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.Start(nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
	assert.Zero(t, m.Len())
}

func TestManagerPrune(t *testing.T) {
	now := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m := NewManager(roster, WithClock(clock))

	stale, err := m.Start([]string{"X"})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	fresh, err := m.Start([]string{"Y"})
	require.NoError(t, err)

	removed := m.Prune(now.Add(-time.Hour))
	assert.Equal(t, 1, removed)

	_, err = m.Get(stale.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(fresh.ID())
	assert.NoError(t, err)
}

// Simultaneous ballots must neither be lost nor observed half-written
func TestConcurrentBallots(t *testing.T) {
	const voters = 50
	users := make([]string, voters)
	for i := range users {
		users[i] = string(rune('a'+i%26)) + string(rune('A'+i/26))
	}
	s, err := NewSession("x", users, []string{"X", "Y"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i, user := range users {
		wg.Add(1)
		go func(i int, user string) {
			defer wg.Done()
			candidate := "X"
			if i%2 == 1 {
				candidate = "Y"
			}
			// first write is overwritten by the second
			assert.NoError(t, s.Submit(user, "Y"))
			assert.NoError(t, s.Submit(user, candidate))
			_ = s.View()
		}(i, user)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			view := s.View()
			assert.LessOrEqual(t, len(view.Ballots), voters)
			assert.Equal(t, voters, len(view.Ballots)+len(view.Waiting))
		}
	}()
	wg.Wait()

	view := s.View()
	require.Len(t, view.Ballots, voters)
	tally := s.Tally()
	assert.Equal(t, voters/2, tally.Counts["X"])
	assert.Equal(t, voters/2, tally.Counts["Y"])
	assert.Equal(t, OutcomeTie, tally.Outcome)
}
