// FilePath: api/middleware/api.middleware.metrics.go
package middleware

import (
	"net/http"

	"github.com/fieldpulse/pipeline/internal/monitoring"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RouteFunc names the route a request matched, for bounded metric labels
type RouteFunc func(r *http.Request) string

// Metrics counts requests per route and status code
func Metrics(metrics *monitoring.Service, route RouteFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			metrics.HTTPRequest(route(r), status)
		})
	}
}
