package ritual

import "errors"

var (
	ErrNoCandidates       = errors.New("nothing to vote on")
	ErrUnknownParticipant = errors.New("participant is not in the roster")
	ErrInvalidBallot      = errors.New("candidate is not in the current candidate set")
	ErrDecided            = errors.New("ritual is already decided")
	ErrNotTied            = errors.New("tally is not tied")
	ErrNoLeaders          = errors.New("no ballots cast")
	ErrNotLeader          = errors.New("choice does not hold the maximum ballot count")
	ErrSessionNotFound    = errors.New("ritual session not found")
)
