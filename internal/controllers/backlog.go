package controllers

import (
	"fmt"
	"strings"

	"github.com/amaumene/moviepick/internal/aggregate"
	"github.com/amaumene/moviepick/internal/metrics"
	"github.com/amaumene/moviepick/internal/models"
	"github.com/amaumene/moviepick/internal/utils"
	"github.com/sirupsen/logrus"
)

// ViewFilter selects backlog rows. Nil fields match everything.
type ViewFilter struct {
	Types        []models.MediaType
	Viewed       *bool
	MissingVotes *bool
	Enabled      *bool
	Scheduled    *bool
}

// Predicates converts the filter to aggregate predicates
func (f ViewFilter) Predicates() []aggregate.Predicate {
	predicates := []aggregate.Predicate{aggregate.TypeIn(f.Types...)}
	if f.Viewed != nil {
		predicates = append(predicates, aggregate.ViewedIs(*f.Viewed))
	}
	if f.MissingVotes != nil {
		predicates = append(predicates, aggregate.MissingVotesIs(*f.MissingVotes))
	}
	if f.Enabled != nil {
		predicates = append(predicates, aggregate.EnabledIs(*f.Enabled))
	}
	if f.Scheduled != nil {
		predicates = append(predicates, aggregate.Scheduled(*f.Scheduled))
	}
	return predicates
}

// Patch is a partial edit of a backlog row. Nil fields are left unchanged.
// Dates are YYYY-MM-DD; an empty string clears them.
type Patch struct {
	Name        *string                     `json:"name"`
	Viewed      *bool                       `json:"viewed"`
	Notes       *string                     `json:"notes"`
	Reporter    *string                     `json:"reporter"`
	ScheduledOn *string                     `json:"scheduled_on"`
	ViewedOn    *string                     `json:"viewed_on"`
	Episode     *models.Ordinal             `json:"episode"`
	Season      *models.Ordinal             `json:"season"`
	Votes       map[string]models.VoteValue `json:"votes"`
}

// Apply merges the patch into m. Vote columns overwrite or insert a single
// participant's vote and never remove anyone else's.
func (p Patch) Apply(m *models.Media) error {
	if p.Name != nil {
		m.Name = strings.TrimSpace(*p.Name)
	}
	if p.Viewed != nil {
		m.Viewed = *p.Viewed
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}
	if p.Reporter != nil {
		m.Reporter = *p.Reporter
	}
	if p.ScheduledOn != nil {
		d, err := optionalDate(*p.ScheduledOn)
		if err != nil {
			return err
		}
		m.ScheduledOn = d
	}
	if p.ViewedOn != nil {
		d, err := optionalDate(*p.ViewedOn)
		if err != nil {
			return err
		}
		m.ViewedOn = d
	}
	if p.Episode != nil {
		e := *p.Episode
		m.Episode = &e
	}
	if p.Season != nil {
		s := *p.Season
		m.Season = &s
	}
	for user, value := range p.Votes {
		m.SetVote(user, value)
	}
	return nil
}

func optionalDate(s string) (*models.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Stats summarizes the backlog
type Stats struct {
	Total        int            `json:"total"`
	Viewed       int            `json:"viewed"`
	MissingVotes int            `json:"missing_votes"`
	Scheduled    int            `json:"scheduled"`
	Eligible     int            `json:"eligible"`
	Invalid      int            `json:"invalid"` // stored records the roster rejects
	ByType       map[string]int `json:"by_type"`
	ByReporter   map[string]int `json:"by_reporter"`
}

// BacklogController edits backlog records and derives their scored views
type BacklogController struct {
	db     *models.Database
	roster models.Roster
	logger *logrus.Logger
}

// NewBacklogController creates a new backlog controller
func NewBacklogController(db *models.Database, roster models.Roster, logger *logrus.Logger) *BacklogController {
	return &BacklogController{
		db:     db,
		roster: roster,
		logger: logger,
	}
}

// Roster returns the participants
func (c *BacklogController) Roster() models.Roster {
	return c.roster
}

// View returns the aggregated backlog rows matching the filter
func (c *BacklogController) View(filter ViewFilter) ([]aggregate.Row, error) {
	medias, _, err := c.load(filter.Types...)
	if err != nil {
		return nil, err
	}
	return aggregate.Filter(aggregate.Aggregate(medias, c.roster), filter.Predicates()...), nil
}

// Tonight returns the eligible rows ranked by average vote
func (c *BacklogController) Tonight(types ...models.MediaType) ([]aggregate.Row, error) {
	medias, _, err := c.load(types...)
	if err != nil {
		return nil, err
	}
	return aggregate.RankForTonight(medias, c.roster), nil
}

// Get returns a single record. A record the roster rejects is a validation error.
func (c *BacklogController) Get(id uint64) (*models.Media, error) {
	media, err := c.db.GetMediaByID(id)
	if err != nil {
		return nil, err
	}
	if err := media.Validate(c.roster); err != nil {
		return nil, err
	}
	return media, nil
}

// load reads the stored records and drops those failing validation, e.g. after a
// roster change. Edit still reaches them by id so they can be repaired.
func (c *BacklogController) load(types ...models.MediaType) ([]*models.Media, int, error) {
	medias, err := c.db.FindMedias(types...)
	if err != nil {
		return nil, 0, err
	}

	valid := medias[:0]
	invalid := 0
	for _, m := range medias {
		if err := m.Validate(c.roster); err != nil {
			invalid++
			c.logger.WithError(err).WithField("media_id", m.ID).Warn("Skipping invalid backlog record")
			continue
		}
		valid = append(valid, m)
	}
	return valid, invalid, nil
}

// Add inserts a new proposal. It returns the names of existing records of the same
// type that look like the same title; the insert happens regardless.
func (c *BacklogController) Add(media *models.Media) (*models.Media, []string, error) {
	if media.ID != 0 {
		return nil, nil, fmt.Errorf("%w: new records must not carry an id", models.ErrValidation)
	}
	media.Name = strings.TrimSpace(media.Name)
	if err := media.Validate(c.roster); err != nil {
		return nil, nil, err
	}

	existing, err := c.db.FindMedias(media.Type)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, 0, len(existing))
	for _, m := range existing {
		names = append(names, m.Name)
	}
	similar := utils.SimilarTitles(media.Name, names)
	if len(similar) > 0 {
		c.logger.WithFields(logrus.Fields{
			"name":    media.Name,
			"similar": similar,
		}).Warn("Proposal looks like an existing backlog entry")
	}

	if err := c.Save(media); err != nil {
		return nil, nil, err
	}
	return media, similar, nil
}

// Edit applies a partial update to an existing record
func (c *BacklogController) Edit(id uint64, patch Patch) (*models.Media, error) {
	current, err := c.db.GetMediaByID(id)
	if err != nil {
		return nil, err
	}

	updated := current.Clone()
	if err := patch.Apply(updated); err != nil {
		return nil, err
	}
	if err := updated.Validate(c.roster); err != nil {
		return nil, err
	}
	if err := c.Save(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Save persists a full record: records without an id are inserted, the others are
// updated by id. A missing id is reported, never recreated.
func (c *BacklogController) Save(media *models.Media) error {
	op := "update"
	var err error
	if media.ID == 0 {
		op = "insert"
		err = c.db.InsertMedia(media)
	} else {
		err = c.db.UpdateMedia(media)
	}

	if err != nil {
		metrics.BacklogWritesTotal.WithLabelValues(op, "error").Inc()
		c.logger.WithError(err).WithFields(logrus.Fields{
			"op":       op,
			"media_id": media.ID,
			"name":     media.Name,
		}).Error("Failed to save media")
		return err
	}

	metrics.BacklogWritesTotal.WithLabelValues(op, "ok").Inc()
	c.logger.WithFields(logrus.Fields{
		"op":       op,
		"media_id": media.ID,
		"name":     media.Name,
	}).Info("Media saved")
	return nil
}

// Stats counts backlog rows by state
func (c *BacklogController) Stats() (*Stats, error) {
	medias, invalid, err := c.load()
	if err != nil {
		return nil, err
	}
	rows := aggregate.Aggregate(medias, c.roster)

	stats := &Stats{
		Total:      len(rows),
		Invalid:    invalid,
		ByType:     make(map[string]int),
		ByReporter: make(map[string]int),
	}
	stats.Viewed = len(aggregate.Filter(rows, aggregate.ViewedIs(true)))
	stats.MissingVotes = len(aggregate.Filter(rows, aggregate.MissingVotesIs(true)))
	stats.Scheduled = len(aggregate.Filter(rows, aggregate.Scheduled(true)))
	stats.Eligible = len(aggregate.Filter(rows, aggregate.Eligible()))
	for _, row := range rows {
		stats.ByType[string(row.Type)]++
		stats.ByReporter[row.Reporter]++
	}
	return stats, nil
}
