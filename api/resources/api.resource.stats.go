// FilePath: api/resources/api.resource.stats.go
package resources

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fieldpulse/pipeline/internal/errors"
	"github.com/fieldpulse/pipeline/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// SnapshotReader returns the latest statistics snapshot
type SnapshotReader interface {
	Current(ctx context.Context) (*models.StatisticsSnapshot, error)
}

// AnomalyStatsReader summarizes flagged readings
type AnomalyStatsReader interface {
	Stats(ctx context.Context) (*models.AnomalyStats, error)
}

// EventStatsReader counts lifecycle events per code
type EventStatsReader interface {
	Stats(ctx context.Context) (map[string]int64, error)
}

// EnvelopeFinder looks envelopes up by per-type position on the bus
type EnvelopeFinder interface {
	Find(ctx context.Context, t models.EventType, index int) (*models.Envelope, error)
}

type StatsHandlers struct {
	snapshots SnapshotReader
}

func NewStatsHandlers(snapshots SnapshotReader) *StatsHandlers {
	return &StatsHandlers{snapshots: snapshots}
}

// @Summary Latest aggregated statistics
// @Tags processing
// @Produce json
// @Success 200 {object} models.StatisticsSnapshot
// @Router /stats [get]
func (h *StatsHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.snapshots.Current(r.Context())
	if err != nil {
		nuts.L.Errorf("[API] No statistics available: %v", err)
		respondWithJSON(w, http.StatusOK, struct{}{})
		return
	}
	respondWithJSON(w, http.StatusOK, snapshot)
}

type AnomalyHandlers struct {
	anomalies AnomalyStatsReader
}

func NewAnomalyHandlers(anomalies AnomalyStatsReader) *AnomalyHandlers {
	return &AnomalyHandlers{anomalies: anomalies}
}

// @Summary Anomaly counts and the most recent anomaly
// @Tags anomaly
// @Produce json
// @Success 200 {object} models.AnomalyStats
// @Failure 404 {object} Message
// @Router /anomaly-stats [get]
func (h *AnomalyHandlers) GetAnomalyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.anomalies.Stats(r.Context())
	if err != nil {
		if errors.IsNotFound(err) {
			respondWithMessage(w, http.StatusNotFound, "Anomalies do not exist")
			return
		}
		respondWithError(w, errors.NewDatabaseError("failed to read anomaly stats", err).WithRequestID(nuts.NID("req", 12)))
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

type EventLogHandlers struct {
	events EventStatsReader
}

func NewEventLogHandlers(events EventStatsReader) *EventLogHandlers {
	return &EventLogHandlers{events: events}
}

// @Summary Lifecycle event counts per code
// @Tags eventlog
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /event-stats [get]
func (h *EventLogHandlers) GetEventStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.events.Stats(r.Context())
	if err != nil {
		respondWithError(w, errors.NewDatabaseError("failed to read event stats", err).WithRequestID(nuts.NID("req", 12)))
		return
	}
	if counts == nil {
		counts = map[string]int64{}
	}
	respondWithJSON(w, http.StatusOK, counts)
}

type AuditHandlers struct {
	finder EnvelopeFinder
}

func NewAuditHandlers(finder EnvelopeFinder) *AuditHandlers {
	return &AuditHandlers{finder: finder}
}

// @Summary Power usage envelope at a position in the event history
// @Tags audit
// @Produce json
// @Param index query int true "Zero based position among power usage events"
// @Success 200 {object} models.Envelope
// @Failure 404 {object} Message
// @Router /power-usage [get]
func (h *AuditHandlers) GetPowerUsage(w http.ResponseWriter, r *http.Request) {
	h.find(w, r, models.EventTypePowerUsage)
}

// @Summary Location envelope at a position in the event history
// @Tags audit
// @Produce json
// @Param index query int true "Zero based position among location events"
// @Success 200 {object} models.Envelope
// @Failure 404 {object} Message
// @Router /location [get]
func (h *AuditHandlers) GetLocation(w http.ResponseWriter, r *http.Request) {
	h.find(w, r, models.EventTypeLocation)
}

func (h *AuditHandlers) find(w http.ResponseWriter, r *http.Request, t models.EventType) {
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil || index < 0 {
		respondWithError(w, errors.NewValidationError("index must be a non-negative integer", err).WithRequestID(nuts.NID("req", 12)))
		return
	}

	env, err := h.finder.Find(r.Context(), t, index)
	if err != nil {
		nuts.L.Errorf("[API] Could not find %s at index %d: %v", t, index, err)
		respondWithMessage(w, http.StatusNotFound, "Not Found")
		return
	}
	respondWithJSON(w, http.StatusOK, env)
}
