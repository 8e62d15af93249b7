package tmdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/amaumene/moviepick/internal/metrics"
	"github.com/amaumene/moviepick/internal/models"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Result is one candidate returned by a metadata search
type Result struct {
	ID            int64            `json:"id"`
	Kind          models.MediaType `json:"kind"`
	Title         string           `json:"title"`
	OriginalTitle string           `json:"original_title"`
	Overview      string           `json:"overview,omitempty"`
	PosterPath    string           `json:"poster_path,omitempty"`
	Language      string           `json:"original_language"`
	LanguageName  string           `json:"language_name,omitempty"`
	ReleaseDate   string           `json:"release_date,omitempty"`
	Popularity    float64          `json:"popularity"`
	VoteAverage   float64          `json:"vote_average"`
	VoteCount     int              `json:"vote_count"`
}

// Draft turns the result into an unsaved backlog proposal
func (r Result) Draft(reporter string) *models.Media {
	var m *models.Media
	if r.Kind == models.MediaTypeShow {
		m = models.NewShow(r.Title, reporter, models.Ordinal{Order: 1})
	} else {
		m = models.NewMovie(r.Title, reporter, nil)
	}
	if r.OriginalTitle != "" && r.OriginalTitle != r.Title {
		m.Notes = r.OriginalTitle
	}
	return m
}

// searchPage is the paged envelope of /search/movie and /search/tv
type searchPage struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
	Results      []rawResult `json:"results"`
}

// rawResult covers both movie (title, release_date) and show (name, first_air_date) payloads
type rawResult struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	ReleaseDate      string  `json:"release_date"`
	Name             string  `json:"name"`
	OriginalName     string  `json:"original_name"`
	FirstAirDate     string  `json:"first_air_date"`
	Overview         string  `json:"overview"`
	PosterPath       *string `json:"poster_path"`
	OriginalLanguage string  `json:"original_language"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
}

func (p *searchPage) validate(requested int) error {
	if p.Page != requested {
		return fmt.Errorf("asked for page %d, got page %d", requested, p.Page)
	}
	if p.TotalPages < 0 || p.TotalResults < 0 {
		return fmt.Errorf("negative totals on page %d", requested)
	}
	for _, r := range p.Results {
		if r.ID <= 0 {
			return fmt.Errorf("result without id on page %d", requested)
		}
	}
	return nil
}

// SearchMovies searches movies by free text
func (c *Client) SearchMovies(ctx context.Context, query string) ([]Result, error) {
	return c.Search(ctx, query, models.MediaTypeMovie)
}

// SearchShows searches TV shows by free text
func (c *Client) SearchShows(ctx context.Context, query string) ([]Result, error) {
	return c.Search(ctx, query, models.MediaTypeShow)
}

// Search follows every result page sequentially and returns the deduplicated candidates.
// Any failed or malformed page aborts the whole search.
func (c *Client) Search(ctx context.Context, query string, kind models.MediaType) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", models.ErrValidation)
	}

	var path string
	switch kind {
	case models.MediaTypeMovie:
		path = "/search/movie"
	case models.MediaTypeShow:
		path = "/search/tv"
	default:
		return nil, fmt.Errorf("%w: unknown media type %q", models.ErrValidation, kind)
	}

	key := cacheKey(kind, c.locale, query)
	if cached, ok := c.cache.Get(key); ok {
		metrics.SearchRequestsTotal.WithLabelValues(string(kind), "cached").Inc()
		return append([]Result(nil), cached.([]Result)...), nil
	}

	c.logger.WithFields(logrus.Fields{
		"query": query,
		"kind":  kind,
	}).Debug("Searching TMDB")

	var results []Result
	seen := make(map[int64]bool)
	for page := 1; ; page++ {
		p, err := c.fetchPage(ctx, path, query, page)
		if err != nil {
			metrics.SearchRequestsTotal.WithLabelValues(string(kind), "error").Inc()
			return nil, err
		}
		metrics.SearchPagesTotal.Inc()

		for _, raw := range p.Results {
			if seen[raw.ID] {
				continue
			}
			seen[raw.ID] = true
			results = append(results, convertResult(raw, kind))
		}

		if page >= p.TotalPages || page >= maxPages {
			break
		}
	}

	c.logger.WithFields(logrus.Fields{
		"query": query,
		"kind":  kind,
		"count": len(results),
	}).Debug("TMDB search completed")

	metrics.SearchRequestsTotal.WithLabelValues(string(kind), "ok").Inc()
	c.cache.Set(key, results, cache.DefaultExpiration)
	return append([]Result(nil), results...), nil
}

func convertResult(raw rawResult, kind models.MediaType) Result {
	r := Result{
		ID:          raw.ID,
		Kind:        kind,
		Overview:    raw.Overview,
		Language:    raw.OriginalLanguage,
		Popularity:  raw.Popularity,
		VoteAverage: raw.VoteAverage,
		VoteCount:   raw.VoteCount,
	}
	if kind == models.MediaTypeShow {
		r.Title = raw.Name
		r.OriginalTitle = raw.OriginalName
		r.ReleaseDate = raw.FirstAirDate
	} else {
		r.Title = raw.Title
		r.OriginalTitle = raw.OriginalTitle
		r.ReleaseDate = raw.ReleaseDate
	}
	if raw.PosterPath != nil {
		r.PosterPath = *raw.PosterPath
	}
	r.LanguageName = languageName(raw.OriginalLanguage)
	return r
}

// languageName maps an ISO 639-1 code to its English name, "" when unknown
func languageName(code string) string {
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	return display.English.Languages().Name(tag)
}

func cacheKey(kind models.MediaType, locale, query string) string {
	return string(kind) + "|" + locale + "|" + strings.ToLower(query)
}
