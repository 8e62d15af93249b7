package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/amaumene/moviepick/internal/aggregate"
	"github.com/amaumene/moviepick/internal/api/handlers"
	"github.com/amaumene/moviepick/internal/config"
	"github.com/amaumene/moviepick/internal/controllers"
	"github.com/amaumene/moviepick/internal/models"
	"github.com/amaumene/moviepick/internal/ritual"
	"github.com/amaumene/moviepick/internal/services/tmdb"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var roster = models.Roster{"eiryuu", "jac", "plue", "wasp"}

type testAPI struct {
	t      *testing.T
	server *httptest.Server
}

func newTestAPI(t *testing.T, upstream http.Handler) *testAPI {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Roster:     roster,
		TMDBToken:  "token",
		TMDBLocale: "it-IT",
		ServerPort: "0",
	}
	var client *tmdb.Client
	if upstream != nil {
		tmdbServer := httptest.NewServer(upstream)
		t.Cleanup(tmdbServer.Close)
		cfg.TMDBBaseURL = tmdbServer.URL
		client, err = tmdb.NewClient(cfg, logger)
		require.NoError(t, err)
	}

	backlog := controllers.NewBacklogController(db, roster, logger)
	rituals := controllers.NewRitualController(db, backlog, ritual.NewManager(roster), logger)
	search := controllers.NewSearchController(client, backlog, logger)

	server := httptest.NewServer(NewServer(cfg, backlog, rituals, search, logger).Handler())
	t.Cleanup(server.Close)
	return &testAPI{t: t, server: server}
}

// do sends body as JSON and decodes the response into out when out is not nil
func (a *testAPI) do(method, path string, body any, out any) int {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *testAPI) create(name string, votes map[string]any) handlers.CreateResponse {
	a.t.Helper()
	var created handlers.CreateResponse
	status := a.do(http.MethodPost, "/api/backlog", map[string]any{
		"type":     "movie",
		"name":     name,
		"reporter": "jac",
		"votes":    votes,
	}, &created)
	require.Equal(a.t, http.StatusCreated, status)
	return created
}

func TestHealthAndStatus(t *testing.T) {
	a := newTestAPI(t, nil)

	var health map[string]string
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/health", nil, &health))
	assert.Equal(t, "healthy", health["status"])

	a.create("Alien", map[string]any{"eiryuu": 1, "jac": 1, "plue": 1, "wasp": 1})

	var status handlers.StatusResponse
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/status", nil, &status))
	assert.Equal(t, 1, status.Total)
	assert.Equal(t, 1, status.Eligible)
	assert.Equal(t, []string(roster), status.Roster)
	assert.False(t, status.SearchEnabled)

	resp, err := http.Get(a.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "moviepick_backlog_writes_total")
}

func TestBacklogEndpoints(t *testing.T) {
	a := newTestAPI(t, nil)

	created := a.create("Alien", map[string]any{"eiryuu": "🟢", "jac": 1, "plue": 0, "wasp": -1})
	assert.NotZero(t, created.Media.ID, 10)
	assert.Empty(t, created.Similar)

	dup := a.create("alien", nil)
	assert.Equal(t, []string{"Alien"}, dup.Similar)

	var rows []aggregate.Row
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/backlog?enabled=false", nil, &rows))
	assert.Len(t, rows, 1)
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/backlog?missing_votes=false&scheduled=false", nil, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 0.25, *rows[0].VotesAvg)
	assert.Equal(t, models.LabelPositive, rows[0].Votes[0].Label)

	var patched models.Media
	path := "/api/backlog/" + strconv.FormatUint(created.Media.ID, 10)
	require.Equal(t, http.StatusOK, a.do(http.MethodPatch, path, map[string]any{
		"viewed": true,
		"votes":  map[string]any{"wasp": 1},
	}, &patched))
	assert.True(t, patched.Viewed)
	assert.Equal(t, models.VotePositive, patched.VoteOf("wasp"))
	assert.Equal(t, models.VoteNeutral, patched.VoteOf("plue"))

	var errResp handlers.ErrorResponse
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPatch, "/api/backlog/999", map[string]any{"viewed": true}, &errResp))
	assert.NotEmpty(t, errResp.Error)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/backlog/abc", nil, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/backlog?viewed=maybe", nil, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/backlog", map[string]any{
		"type": "book", "name": "Dune", "reporter": "jac",
	}, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/backlog", map[string]any{
		"type": "movie", "name": "Dune", "reporter": "jac", "votes": map[string]any{"jac": 5},
	}, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/backlog", map[string]any{
		"type": "show", "name": "Dark", "reporter": "jac",
	}, nil))

	var tonight []aggregate.Row
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/tonight", nil, &tonight))
	assert.Empty(t, tonight)
}

func TestRitualEndpoints(t *testing.T) {
	a := newTestAPI(t, nil)
	all := map[string]any{"eiryuu": 1, "jac": 1, "plue": 1, "wasp": 1}
	movie := a.create("Alien", all)
	a.create("Heat", all)

	var errResp handlers.ErrorResponse
	var view controllers.RitualView
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/rituals", nil, &view))
	assert.Equal(t, []string{"Alien", "Heat"}, view.Candidates)
	base := "/api/rituals/" + view.ID

	var tally ritual.Tally
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, base+"/tally", nil, &tally))
	assert.Equal(t, ritual.OutcomeNoBallots, tally.Outcome)
	assert.Equal(t, http.StatusConflict, a.do(http.MethodGet, base+"/draw", nil, nil))

	assert.Equal(t, http.StatusUnprocessableEntity,
		a.do(http.MethodPut, base+"/ballots/jac", handlers.BallotRequest{Candidate: "Dune"}, &errResp))
	assert.Equal(t, http.StatusUnprocessableEntity,
		a.do(http.MethodPut, base+"/ballots/stranger", handlers.BallotRequest{Candidate: "Alien"}, nil))

	for user, candidate := range map[string]string{"eiryuu": "Alien", "jac": "Alien", "plue": "Heat", "wasp": "Heat"} {
		require.Equal(t, http.StatusOK, a.do(http.MethodPut, base+"/ballots/"+user, handlers.BallotRequest{Candidate: candidate}, nil))
	}

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, base+"/tally", nil, &tally))
	assert.Equal(t, ritual.OutcomeTie, tally.Outcome)
	assert.Equal(t, http.StatusUnprocessableEntity, a.do(http.MethodPost, base+"/commit", nil, nil))

	var drawn handlers.DrawResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, base+"/draw", nil, &drawn))
	assert.Contains(t, []string{"Alien", "Heat"}, drawn.Candidate)

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, base+"/runoff", nil, &view))
	assert.Empty(t, view.Ballots)
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, base+"/runoff", nil, nil))

	for _, user := range roster {
		require.Equal(t, http.StatusOK, a.do(http.MethodPut, base+"/ballots/"+user, handlers.BallotRequest{Candidate: "Alien"}, nil))
	}

	var pick models.Pick
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, base+"/commit", handlers.CommitRequest{}, &pick))
	assert.Equal(t, movie.Media.ID, pick.MediaID)
	assert.Equal(t, 2, pick.Rounds)

	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, base+"/reset", nil, nil))
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPut, base+"/ballots/jac", handlers.BallotRequest{Candidate: "Heat"}, nil))

	var history []models.Pick
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/rituals/history", nil, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "Alien", history[0].Name)

	var media models.Media
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/backlog/"+strconv.FormatUint(movie.Media.ID, 10), nil, &media))
	assert.NotNil(t, media.ScheduledOn)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/rituals/missing", nil, nil))

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, base, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, base, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, base, nil, nil))
}

func TestRitualStartWithoutCandidates(t *testing.T) {
	a := newTestAPI(t, nil)

	var errResp handlers.ErrorResponse
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/api/rituals", handlers.StartRequest{Types: []string{"show"}}, &errResp))
	assert.Contains(t, errResp.Error, "nothing to vote on")
}

func TestSearchEndpoints(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("query"), "boom") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"page":1,"total_pages":1,"total_results":1,"results":[{"id":7,"title":"Seven","original_title":"Se7en","original_language":"en"}]}`)
	})
	a := newTestAPI(t, upstream)

	var status handlers.StatusResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/status", nil, &status))
	assert.True(t, status.SearchEnabled)

	var results []tmdb.Result
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/search?q=seven", nil, &results))
	require.Len(t, results, 1)
	assert.Equal(t, models.MediaTypeMovie, results[0].Kind)

	assert.Equal(t, http.StatusBadGateway, a.do(http.MethodGet, "/api/search?q=boom", nil, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/search?q=", nil, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/search?q=seven&type=book", nil, nil))

	var created handlers.CreateResponse
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/search/propose",
		handlers.ProposeRequest{Result: results[0], Reporter: "wasp"}, &created))
	assert.Equal(t, "Seven", created.Media.Name)
	assert.Equal(t, "Se7en", created.Media.Notes)
}

func TestSearchDisabled(t *testing.T) {
	a := newTestAPI(t, nil)

	assert.Equal(t, http.StatusServiceUnavailable, a.do(http.MethodGet, "/api/search?q=seven", nil, nil))
}
