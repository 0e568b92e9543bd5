// FilePath: api/api.router.go
package api

import (
	"net/http"

	"github.com/fieldpulse/pipeline/api/middleware"
	"github.com/fieldpulse/pipeline/api/resources"
	"github.com/fieldpulse/pipeline/internal/config"
	"github.com/fieldpulse/pipeline/internal/monitoring"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/swaggo/swag"

	_ "github.com/fieldpulse/pipeline/api/docs"
)

// Options configure the surface shared by every service
type Options struct {
	Service     config.Service
	CORSOrigins []string
	MetricsPath string
	Metrics     *monitoring.Service
}

// NewRouter builds the HTTP surface of one service. The receiver is served by
// chi, every other service by gorilla/mux.
func NewRouter(opts Options, res *resources.Resources) http.Handler {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}

	var h http.Handler
	if opts.Service == config.ServiceReceiver {
		h = newReceiverRouter(opts, res)
	} else {
		h = newQueryRouter(opts, res)
	}
	return middleware.CORS(opts.CORSOrigins)(middleware.AccessLog(h))
}

func newReceiverRouter(opts Options, res *resources.Resources) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics(opts.Metrics, chiRoute))

	r.Get("/health", res.HealthCheck)
	r.Method(http.MethodGet, opts.MetricsPath, res.Metrics)
	r.Get("/openapi.json", openAPI)
	if res.Readings != nil {
		r.Post("/power-usage", res.Readings.PostPowerUsage)
		r.Post("/location", res.Readings.PostLocation)
	}
	return r
}

func newQueryRouter(opts Options, res *resources.Resources) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recovery)
	r.Use(mux.MiddlewareFunc(middleware.Metrics(opts.Metrics, muxRoute)))

	r.HandleFunc("/health", res.HealthCheck).Methods(http.MethodGet)
	r.Handle(opts.MetricsPath, res.Metrics).Methods(http.MethodGet)
	r.HandleFunc("/openapi.json", openAPI).Methods(http.MethodGet)

	switch {
	case res.Storage != nil:
		r.HandleFunc("/power-usage", res.Storage.GetPowerUsage).Methods(http.MethodGet)
		r.HandleFunc("/location", res.Storage.GetLocation).Methods(http.MethodGet)
	case res.Audit != nil:
		r.HandleFunc("/power-usage", res.Audit.GetPowerUsage).Methods(http.MethodGet)
		r.HandleFunc("/location", res.Audit.GetLocation).Methods(http.MethodGet)
	}
	if res.Stats != nil {
		r.HandleFunc("/stats", res.Stats.GetStats).Methods(http.MethodGet)
	}
	if res.Anomalies != nil {
		r.HandleFunc("/anomaly-stats", res.Anomalies.GetAnomalyStats).Methods(http.MethodGet)
	}
	if res.EventLog != nil {
		r.HandleFunc("/event-stats", res.EventLog.GetEventStats).Methods(http.MethodGet)
	}
	return r
}

func openAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}

func chiRoute(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return "unmatched"
}

func muxRoute(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
