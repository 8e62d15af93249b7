package controllers

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/amaumene/moviepick/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testRoster = models.Roster{"eiryuu", "jac", "plue", "wasp"}

func newTestDB(t *testing.T) *models.Database {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// insertVoted stores a movie with one score per roster participant, in roster order
func insertVoted(t *testing.T, db *models.Database, name string, scores ...int) *models.Media {
	t.Helper()
	m := models.NewMovie(name, "jac", nil)
	for i, score := range scores {
		v, err := models.VoteFromScore(score)
		require.NoError(t, err)
		m.SetVote(testRoster[i], v)
	}
	require.NoError(t, db.InsertMedia(m))
	return m
}

func ptr[T any](v T) *T {
	return &v
}
