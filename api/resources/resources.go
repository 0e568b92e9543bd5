// FilePath: api/resources/resources.go
package resources

import (
	"context"
	"net/http"

	nuts "github.com/vaudience/go-nuts"
)

// HealthStatus is the body of GET /health
type HealthStatus struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Degraded bool   `json:"degraded"`
}

// Resources holds all HTTP resource handlers. Only the groups a service serves are set.
type Resources struct {
	Readings  *ReadingHandlers
	Storage   *StorageHandlers
	Stats     *StatsHandlers
	Anomalies *AnomalyHandlers
	EventLog  *EventLogHandlers
	Audit     *AuditHandlers

	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     http.Handler
}

// SetHealthCheck installs the health handler. ping may be nil; a failing ping marks the service degraded.
func (r *Resources) SetHealthCheck(service string, ping func(ctx context.Context) error) {
	r.HealthCheck = func(w http.ResponseWriter, req *http.Request) {
		status := HealthStatus{Status: "ok", Service: service, Version: nuts.GetVersion()}
		if ping == nil || ping(req.Context()) != nil {
			status.Status = "degraded"
			status.Degraded = true
		}
		respondWithJSON(w, http.StatusOK, status)
	}
}

// SetMetrics sets the metrics handler
func (r *Resources) SetMetrics(h http.Handler) {
	r.Metrics = h
}
