package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStack(t *testing.T, handler http.HandlerFunc) (http.Handler, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()

	r := chi.NewRouter()
	r.Use(Metrics)
	r.Use(Logging(logger))
	r.Get("/items/{id}", handler)
	return r, hook
}

func TestLoggingRecordsStatus(t *testing.T) {
	var inner http.ResponseWriter
	stack, hook := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		inner = w
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, "missing")
	})

	rec := httptest.NewRecorder()
	stack.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/7", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	_, ok := inner.(chimw.WrapResponseWriter)
	assert.True(t, ok)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, http.StatusNotFound, entry.Data["status"])
	assert.Equal(t, 7, entry.Data["bytes"])
	assert.Equal(t, "/items/7", entry.Data["path"])
}

func TestLoggingDefaultsToOK(t *testing.T) {
	stack, hook := newStack(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	stack.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/1", nil))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, http.StatusOK, entry.Data["status"])
}
