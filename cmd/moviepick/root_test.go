package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/amaumene/moviepick/internal/aggregate"
	"github.com/amaumene/moviepick/internal/models"
	"github.com/amaumene/moviepick/internal/services/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// seedBacklog points the config at a fresh directory holding one eligible and one incomplete movie
func seedBacklog(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("ROSTER", "jac,wasp")

	db, err := models.NewDatabase(filepath.Join(dir, "moviepick.db"))
	require.NoError(t, err)
	defer db.Close()

	heat := models.NewMovie("Heat", "jac", nil)
	heat.SetVote("jac", models.VotePositive)
	heat.SetVote("wasp", models.VoteNeutral)
	require.NoError(t, db.InsertMedia(heat))

	partial := models.NewMovie("Partial", "wasp", nil)
	partial.SetVote("jac", models.VotePositive)
	require.NoError(t, db.InsertMedia(partial))
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "moviepick", cmd.Use)

	for _, name := range []string{"serve", "tonight", "search"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "tonight", "--format", "yaml")
	assert.ErrorContains(t, err, "invalid format")
}

func TestTonightText(t *testing.T) {
	seedBacklog(t)

	out, err := execute(t, "tonight")
	require.NoError(t, err)
	assert.Contains(t, out, "Heat")
	assert.Contains(t, out, "+0.50")
	assert.Contains(t, out, models.LabelPositive)
	assert.NotContains(t, out, "Partial")
}

func TestTonightJSON(t *testing.T) {
	seedBacklog(t)

	out, err := execute(t, "tonight", "--format", "json", "--type", "movie")
	require.NoError(t, err)

	var rows []aggregate.Row
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Heat", rows[0].Name)
	assert.Equal(t, 0.5, *rows[0].VotesAvg)

	out, err = execute(t, "tonight", "--format", "json", "--type", "show")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	_, err = execute(t, "tonight", "--type", "book")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSearch(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/tv", r.URL.Path)
		assert.Equal(t, "trono di spade", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"page":1,"total_pages":1,"total_results":1,"results":[{"id":1399,"name":"Il trono di spade","original_name":"Game of Thrones","original_language":"en"}]}`)
	}))
	defer upstream.Close()

	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("TMDB_TOKEN", "token")
	t.Setenv("TMDB_BASE_URL", upstream.URL)
	t.Setenv("TMDB_PAGE_DELAY_MS", "0")

	out, err := execute(t, "search", "--type", "show", "--format", "json", "trono", "di", "spade")
	require.NoError(t, err)

	var results []tmdb.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Game of Thrones", results[0].OriginalTitle)
	assert.Equal(t, "English", results[0].LanguageName)
}

func TestSearchRequiresToken(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("TMDB_TOKEN", "")

	_, err := execute(t, "search", "dune")
	assert.ErrorContains(t, err, "TMDB_TOKEN")
}
