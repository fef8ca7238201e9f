package middleware

import (
	"net/http"
	"time"

	"github.com/angelmondragon/entrydesk-backend/pkg/metrics"
)

// Metrics records request count and latency under the matched chi route pattern
// so path parameters do not explode label cardinality.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			if route == r.URL.Path {
				route = "unmatched"
			}
			m.Observe(r.Method, route, status, time.Since(start))
		})
	}
}
