package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/amaumene/moviepick/internal/config"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrSearchFailed wraps every upstream failure. No partial results accompany it.
var ErrSearchFailed = errors.New("metadata search failed")

// maxPages is the upstream hard limit on result pages
const maxPages = 500

// Client wraps TMDB search API HTTP calls
type Client struct {
	baseURL    string
	token      string
	locale     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Cache
	logger     *logrus.Logger
}

// NewClient creates a new TMDB client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if err := cfg.RequireSearch(); err != nil {
		return nil, err
	}
	if _, err := url.Parse(cfg.TMDBBaseURL); err != nil {
		return nil, fmt.Errorf("invalid TMDB URL: %w", err)
	}

	limit := rate.Inf
	if cfg.TMDBPageDelay > 0 {
		limit = rate.Every(cfg.TMDBPageDelay)
	}

	return &Client{
		baseURL: cfg.TMDBBaseURL,
		token:   cfg.TMDBToken,
		locale:  cfg.TMDBLocale,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(limit, 1),
		cache:   cache.New(cfg.TMDBCacheTTL, 2*cfg.TMDBCacheTTL),
		logger:  logger,
	}, nil
}

// fetchPage performs a single paced, authenticated GET of one result page
func (c *Client) fetchPage(ctx context.Context, path, query string, page int) (*searchPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("language", c.locale)
	params.Set("page", strconv.Itoa(page))
	fullURL := c.baseURL + path + "?" + params.Encode()

	c.logger.WithFields(logrus.Fields{
		"path":  path,
		"query": query,
		"page":  page,
	}).Debug("Making TMDB API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", "moviepick/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"body":        string(body),
		}).Error("TMDB API returned non-OK status")
		return nil, fmt.Errorf("%w: status %d: %s", ErrSearchFailed, resp.StatusCode, string(body))
	}

	var result searchPage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode page %d: %v", ErrSearchFailed, page, err)
	}
	if err := result.validate(page); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	return &result, nil
}
