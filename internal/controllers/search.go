package controllers

import (
	"context"
	"errors"

	"github.com/amaumene/moviepick/internal/models"
	"github.com/amaumene/moviepick/internal/services/tmdb"
	"github.com/sirupsen/logrus"
)

// ErrSearchDisabled is returned when no metadata client is configured
var ErrSearchDisabled = errors.New("metadata search is not configured")

// SearchController looks up candidate metadata and turns it into proposals
type SearchController struct {
	client  *tmdb.Client
	backlog *BacklogController
	logger  *logrus.Logger
}

// NewSearchController creates a new search controller. client may be nil.
func NewSearchController(client *tmdb.Client, backlog *BacklogController, logger *logrus.Logger) *SearchController {
	return &SearchController{
		client:  client,
		backlog: backlog,
		logger:  logger,
	}
}

// Enabled reports whether searches can run
func (c *SearchController) Enabled() bool {
	return c.client != nil
}

// Search returns every candidate matching the query for one media kind
func (c *SearchController) Search(ctx context.Context, query string, kind models.MediaType) ([]tmdb.Result, error) {
	if c.client == nil {
		return nil, ErrSearchDisabled
	}

	results, err := c.client.Search(ctx, query, kind)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"query": query,
			"kind":  kind,
		}).Error("Metadata search failed")
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"query": query,
		"kind":  kind,
		"count": len(results),
	}).Info("Metadata search completed")
	return results, nil
}

// Propose adds a search result to the backlog on behalf of reporter
func (c *SearchController) Propose(result tmdb.Result, reporter string) (*models.Media, []string, error) {
	return c.backlog.Add(result.Draft(reporter))
}
