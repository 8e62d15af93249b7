package models

import "time"

// Pick records the outcome of a movie night ritual (vote-order collection)
type Pick struct {
	ID        uint64 `boltholdKey:"ID" json:"id"`
	SessionID string `json:"session_id"`
	MediaID   uint64 `boltholdIndex:"MediaID" json:"media_id"`
	Name      string `json:"name"`

	Rounds  int               `json:"rounds"`
	Drawn   bool              `json:"drawn"` // winner sampled among tied leaders
	Ballots map[string]string `json:"ballots"`

	DecidedAt time.Time `json:"decided_at"`
}
