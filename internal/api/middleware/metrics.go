package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/amaumene/moviepick/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// Metrics records request latency per route pattern. Raw paths would carry ids and
// session uuids, so unmatched requests are grouped under "unmatched".
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		ww := wrap(w, r)
		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, path, strconv.Itoa(status(ww))).
			Observe(time.Since(start).Seconds())
	})
}
