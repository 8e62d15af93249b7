package ritual

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/amaumene/moviepick/internal/models"
)

// State of a ritual instance
type State string

const (
	StateOpen    State = "open"    // collecting ballots
	StateTallied State = "tallied" // tie observed, waiting for a draw or a runoff
	StateDecided State = "decided" // terminal
)

// Outcome of a tally
type Outcome string

const (
	OutcomeNoBallots Outcome = "no_ballots"
	OutcomeWinner    Outcome = "winner"
	OutcomeTie       Outcome = "tie"
)

// Tally is a count of the ballots taken from one consistent snapshot
type Tally struct {
	Outcome Outcome        `json:"outcome"`
	Counts  map[string]int `json:"counts"`
	Max     int            `json:"max"`
	Leaders []string       `json:"leaders"` // candidate order
	Winner  string         `json:"winner,omitempty"`
	Round   int            `json:"round"`
}

// Result is a committed ritual outcome
type Result struct {
	Winner  string            `json:"winner"`
	Rounds  int               `json:"rounds"`
	Drawn   bool              `json:"drawn"`
	Ballots map[string]string `json:"ballots"`
}

// View is a read-only copy of the session state
type View struct {
	ID         string            `json:"id"`
	State      State             `json:"state"`
	Round      int               `json:"round"`
	Candidates []string          `json:"candidates"`
	Ballots    map[string]string `json:"ballots"`
	Waiting    []string          `json:"waiting"` // participants without a ballot
	Winner     string            `json:"winner,omitempty"`
}

// Option configures a Session
type Option func(*Session)

// WithRand replaces the uniform source used by Draw. intn must return a value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(s *Session) { s.intn = intn }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is one movie night ritual shared by every participant.
// All state lives behind mu; every operation works on a single snapshot.
type Session struct {
	mu sync.Mutex

	id         string
	roster     models.Roster
	initial    []string
	candidates []string
	ballots    map[string]string
	state      State
	round      int
	winner     string
	drawn      bool
	lastActive time.Time

	intn func(n int) int
	now  func() time.Time
}

// NewSession opens a ritual over the given candidate names
func NewSession(id string, roster models.Roster, candidates []string, opts ...Option) (*Session, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	for i, c := range candidates {
		if slices.Contains(candidates[:i], c) {
			return nil, fmt.Errorf("%w: duplicate candidate %q", models.ErrValidation, c)
		}
	}

	s := &Session{
		id:         id,
		roster:     roster,
		initial:    slices.Clone(candidates),
		candidates: slices.Clone(candidates),
		ballots:    make(map[string]string),
		state:      StateOpen,
		intn:       rand.IntN,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastActive = s.now()

	return s, nil
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Submit records or replaces the participant's ballot
func (s *Session) Submit(user, candidate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDecided {
		return ErrDecided
	}
	if !s.roster.Contains(user) {
		return fmt.Errorf("%w: %q", ErrUnknownParticipant, user)
	}
	if !slices.Contains(s.candidates, candidate) {
		return fmt.Errorf("%w: %q", ErrInvalidBallot, candidate)
	}

	s.ballots[user] = candidate
	s.state = StateOpen
	s.lastActive = s.now()
	return nil
}

// Tally counts the ballots. A unique leader decides the ritual, a tie waits for Draw or Runoff.
func (s *Session) Tally() Tally {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.count()
	switch {
	case s.state == StateDecided:
		t.Outcome = OutcomeWinner
		t.Winner = s.winner
	case t.Outcome == OutcomeWinner:
		s.state = StateDecided
		s.winner = t.Winner
	case t.Outcome == OutcomeTie:
		s.state = StateTallied
	}
	s.lastActive = s.now()
	return t
}

// Runoff narrows the candidates to the tied leaders and discards every ballot
func (s *Session) Runoff() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDecided {
		return nil, ErrDecided
	}
	t := s.count()
	if t.Outcome != OutcomeTie {
		return nil, ErrNotTied
	}

	s.candidates = t.Leaders
	s.ballots = make(map[string]string)
	s.round++
	s.state = StateOpen
	s.lastActive = s.now()
	return slices.Clone(s.candidates), nil
}

// Draw samples uniformly among the current leaders. It never changes the session, so
// repeated calls may return different leaders.
func (s *Session) Draw() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDecided {
		return s.winner, nil
	}
	t := s.count()
	if t.Outcome == OutcomeNoBallots {
		return "", ErrNoLeaders
	}
	return t.Leaders[s.intn(len(t.Leaders))], nil
}

// Commit finalizes the ritual. An empty choice accepts a unique leader; otherwise the
// choice must be one of the leaders, typically a value returned by Draw.
func (s *Session) Commit(choice string) (Result, error) {
	return s.CommitWith(choice, nil)
}

// CommitWith is Commit with a persist step run under the session lock before the
// state changes. A persist error leaves the session as it was. On a decided session
// persist runs again with the decided result.
func (s *Session) CommitWith(choice string, persist func(Result) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res Result
	if s.state == StateDecided {
		if choice != "" && choice != s.winner {
			return Result{}, ErrDecided
		}
		res = s.result()
	} else {
		t := s.count()
		if t.Outcome == OutcomeNoBallots {
			return Result{}, ErrNoLeaders
		}
		if choice == "" {
			if t.Outcome != OutcomeWinner {
				return Result{}, fmt.Errorf("%w: tied between %v", ErrNotLeader, t.Leaders)
			}
			choice = t.Winner
		}
		if !slices.Contains(t.Leaders, choice) {
			return Result{}, fmt.Errorf("%w: %q", ErrNotLeader, choice)
		}
		res = Result{
			Winner:  choice,
			Rounds:  s.round + 1,
			Drawn:   len(t.Leaders) > 1,
			Ballots: cloneBallots(s.ballots),
		}
	}

	if persist != nil {
		if err := persist(res); err != nil {
			return Result{}, err
		}
	}

	s.winner = res.Winner
	s.drawn = res.Drawn
	s.state = StateDecided
	s.lastActive = s.now()
	return res, nil
}

// Reset abandons the ritual and reopens it over the original candidates
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.candidates = slices.Clone(s.initial)
	s.ballots = make(map[string]string)
	s.state = StateOpen
	s.round = 0
	s.winner = ""
	s.drawn = false
	s.lastActive = s.now()
}

// View returns a copy of the current state
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:         s.id,
		State:      s.state,
		Round:      s.round,
		Candidates: slices.Clone(s.candidates),
		Ballots:    cloneBallots(s.ballots),
		Waiting:    []string{},
		Winner:     s.winner,
	}
	for _, user := range s.roster {
		if _, ok := s.ballots[user]; !ok {
			v.Waiting = append(v.Waiting, user)
		}
	}
	return v
}

// IdleSince returns the time of the last operation
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// count must be called with mu held
func (s *Session) count() Tally {
	t := Tally{
		Counts:  make(map[string]int, len(s.candidates)),
		Leaders: []string{},
		Round:   s.round,
	}
	for _, candidate := range s.ballots {
		t.Counts[candidate]++
	}
	if len(s.ballots) == 0 {
		t.Outcome = OutcomeNoBallots
		return t
	}

	for _, candidate := range s.candidates {
		n := t.Counts[candidate]
		switch {
		case n > t.Max:
			t.Max = n
			t.Leaders = []string{candidate}
		case n == t.Max && n > 0:
			t.Leaders = append(t.Leaders, candidate)
		}
	}

	if len(t.Leaders) == 1 {
		t.Outcome = OutcomeWinner
		t.Winner = t.Leaders[0]
	} else {
		t.Outcome = OutcomeTie
	}
	return t
}

// result must be called with mu held
func (s *Session) result() Result {
	return Result{
		Winner:  s.winner,
		Rounds:  s.round + 1,
		Drawn:   s.drawn,
		Ballots: cloneBallots(s.ballots),
	}
}

func cloneBallots(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
