package controllers

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/amaumene/moviepick/internal/aggregate"
	"github.com/amaumene/moviepick/internal/metrics"
	"github.com/amaumene/moviepick/internal/models"
	"github.com/amaumene/moviepick/internal/ritual"
	"github.com/sirupsen/logrus"
)

// Candidate is a ranked media item competing in a ritual
type Candidate struct {
	MediaID  uint64  `json:"media_id"`
	Name     string  `json:"name"`
	VotesAvg float64 `json:"votes_avg"`
}

// RitualView is the session state plus the candidates it started from
type RitualView struct {
	ritual.View
	Ranked []Candidate  `json:"ranked"`
	Pick   *models.Pick `json:"pick,omitempty"`
}

// PickStore persists ritual outcomes
type PickStore interface {
	CommitPick(pick *models.Pick, scheduledOn models.Date) error
	GetPicks() ([]*models.Pick, error)
}

// ritualEntry serializes commit and reset of one ritual. mu guards pick.
type ritualEntry struct {
	mu      sync.Mutex
	session *ritual.Session
	ranked  []Candidate
	pick    *models.Pick
}

// RitualController runs movie night rituals over the eligible backlog
type RitualController struct {
	mu      sync.Mutex // guards entries only
	entries map[string]*ritualEntry

	picks   PickStore
	backlog *BacklogController
	manager *ritual.Manager
	logger  *logrus.Logger
	now     func() time.Time
}

// NewRitualController creates a new ritual controller
func NewRitualController(picks PickStore, backlog *BacklogController, manager *ritual.Manager, logger *logrus.Logger) *RitualController {
	return &RitualController{
		entries: make(map[string]*ritualEntry),
		picks:   picks,
		backlog: backlog,
		manager: manager,
		logger:  logger,
		now:     time.Now,
	}
}

// Start opens a ritual over tonight's ranked candidates
func (c *RitualController) Start(types ...models.MediaType) (*RitualView, error) {
	rows, err := c.backlog.Tonight(types...)
	if err != nil {
		return nil, err
	}
	ranked := c.candidates(rows)
	if len(ranked) == 0 {
		return nil, ritual.ErrNoCandidates
	}

	names := make([]string, len(ranked))
	for i, cand := range ranked {
		names[i] = cand.Name
	}
	session, err := c.manager.Start(names)
	if err != nil {
		return nil, err
	}

	entry := &ritualEntry{session: session, ranked: ranked}
	c.mu.Lock()
	c.entries[session.ID()] = entry
	c.mu.Unlock()
	metrics.ActiveRituals.Set(float64(c.manager.Len()))

	c.logger.WithFields(logrus.Fields{
		"session_id": session.ID(),
		"candidates": len(ranked),
	}).Info("Ritual started")

	return c.view(entry), nil
}

// candidates maps ranked rows to ballot names. Only the best ranked of several
// records sharing a name competes.
func (c *RitualController) candidates(rows []aggregate.Row) []Candidate {
	seen := make(map[string]bool, len(rows))
	ranked := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		name := row.Name
		if seen[name] {
			c.logger.WithFields(logrus.Fields{
				"media_id": row.ID,
				"name":     name,
			}).Warn("Skipping duplicate title in ritual")
			continue
		}
		seen[name] = true
		ranked = append(ranked, Candidate{MediaID: row.ID, Name: name, VotesAvg: *row.VotesAvg})
	}
	return ranked
}

// View returns the current state of a ritual
func (c *RitualController) View(id string) (*RitualView, error) {
	entry, err := c.entry(id)
	if err != nil {
		return nil, err
	}
	return c.view(entry), nil
}

// Submit records a participant's ballot
func (c *RitualController) Submit(id, user, candidate string) (*RitualView, error) {
	entry, err := c.entry(id)
	if err != nil {
		return nil, err
	}

	if err := entry.session.Submit(user, candidate); err != nil {
		metrics.BallotsTotal.WithLabelValues("rejected").Inc()
		c.logger.WithError(err).WithFields(logrus.Fields{
			"session_id": id,
			"user":       user,
			"candidate":  candidate,
		}).Debug("Ballot rejected")
		return nil, err
	}

	metrics.BallotsTotal.WithLabelValues("accepted").Inc()
	return c.view(entry), nil
}

// Tally counts the ballots of a ritual
func (c *RitualController) Tally(id string) (ritual.Tally, error) {
	entry, err := c.entry(id)
	if err != nil {
		return ritual.Tally{}, err
	}

	tally := entry.session.Tally()
	metrics.TalliesTotal.WithLabelValues(string(tally.Outcome)).Inc()
	c.logger.WithFields(logrus.Fields{
		"session_id": id,
		"outcome":    tally.Outcome,
		"leaders":    tally.Leaders,
		"round":      tally.Round,
	}).Info("Ritual tallied")
	return tally, nil
}

// Runoff restricts a tied ritual to its leaders
func (c *RitualController) Runoff(id string) (*RitualView, error) {
	entry, err := c.entry(id)
	if err != nil {
		return nil, err
	}

	candidates, err := entry.session.Runoff()
	if err != nil {
		return nil, err
	}
	metrics.RunoffsTotal.Inc()
	c.logger.WithFields(logrus.Fields{
		"session_id": id,
		"candidates": candidates,
	}).Info("Ritual runoff")
	return c.view(entry), nil
}

// Draw samples one of the current leaders without changing the ritual
func (c *RitualController) Draw(id string) (string, error) {
	entry, err := c.entry(id)
	if err != nil {
		return "", err
	}
	return entry.session.Draw()
}

// Commit finalizes the winner, records the pick and schedules the winner for today.
// The ritual is decided only once the pick is stored. Committing again returns the stored pick.
func (c *RitualController) Commit(id, choice string) (*models.Pick, error) {
	entry, err := c.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.pick != nil {
		if choice != "" && choice != entry.pick.Name {
			return nil, ritual.ErrDecided
		}
		return entry.pick, nil
	}

	var pick *models.Pick
	_, err = entry.session.CommitWith(choice, func(result ritual.Result) error {
		mediaID, ok := mediaFor(entry.ranked, result.Winner)
		if !ok {
			return fmt.Errorf("%w: winner %q has no backlog record", models.ErrNotFound, result.Winner)
		}
		candidate := &models.Pick{
			SessionID: id,
			MediaID:   mediaID,
			Name:      result.Winner,
			Rounds:    result.Rounds,
			Drawn:     result.Drawn,
			Ballots:   result.Ballots,
			DecidedAt: c.now(),
		}
		if err := c.picks.CommitPick(candidate, models.NewDate(candidate.DecidedAt)); err != nil {
			return err
		}
		pick = candidate
		return nil
	})
	if err != nil {
		c.logger.WithError(err).WithField("session_id", id).Error("Failed to commit ritual")
		return nil, err
	}
	entry.pick = pick

	metrics.PicksTotal.WithLabelValues(strconv.FormatBool(pick.Drawn)).Inc()
	c.logger.WithFields(logrus.Fields{
		"session_id": id,
		"media_id":   pick.MediaID,
		"winner":     pick.Name,
		"rounds":     pick.Rounds,
		"drawn":      pick.Drawn,
	}).Info("Ritual decided")
	return pick, nil
}

// Reset abandons the current round and reopens the ritual over all its candidates
func (c *RitualController) Reset(id string) (*RitualView, error) {
	entry, err := c.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	if entry.pick != nil {
		entry.mu.Unlock()
		return nil, ritual.ErrDecided
	}
	entry.session.Reset()
	entry.mu.Unlock()

	c.logger.WithField("session_id", id).Info("Ritual reset")
	return c.view(entry), nil
}

// Abandon discards a ritual, decided or not
func (c *RitualController) Abandon(id string) error {
	if _, err := c.entry(id); err != nil {
		return err
	}

	c.manager.Remove(id)
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
	metrics.ActiveRituals.Set(float64(c.manager.Len()))

	c.logger.WithField("session_id", id).Info("Ritual abandoned")
	return nil
}

// History returns past picks, most recent first
func (c *RitualController) History() ([]*models.Pick, error) {
	return c.picks.GetPicks()
}

// PruneIdle drops rituals idle for longer than maxIdle
func (c *RitualController) PruneIdle(maxIdle time.Duration) int {
	removed := c.manager.Prune(c.now().Add(-maxIdle))

	c.mu.Lock()
	for id := range c.entries {
		if _, err := c.manager.Get(id); err != nil {
			delete(c.entries, id)
		}
	}
	c.mu.Unlock()

	metrics.ActiveRituals.Set(float64(c.manager.Len()))
	return removed
}

// Active returns the number of live rituals
func (c *RitualController) Active() int {
	return c.manager.Len()
}

func (c *RitualController) entry(id string) (*ritualEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ritual.ErrSessionNotFound, id)
	}
	return entry, nil
}

func (c *RitualController) view(entry *ritualEntry) *RitualView {
	entry.mu.Lock()
	pick := entry.pick
	entry.mu.Unlock()

	return &RitualView{
		View:   entry.session.View(),
		Ranked: entry.ranked,
		Pick:   pick,
	}
}

func mediaFor(ranked []Candidate, name string) (uint64, bool) {
	for _, cand := range ranked {
		if cand.Name == name {
			return cand.MediaID, true
		}
	}
	return 0, false
}
