// FilePath: api/resources/api.resource.storage.go
package resources

import (
	"context"
	"net/http"

	"github.com/fieldpulse/pipeline/internal/errors"
	"github.com/fieldpulse/pipeline/internal/models"
	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"
)

// RangeReader answers ingestion-time range queries
type RangeReader interface {
	PowerUsage(ctx context.Context, r models.TimeRange) ([]models.PowerUsageReading, error)
	Location(ctx context.Context, r models.TimeRange) ([]models.LocationReading, error)
}

// StorageHandlers expose the ingestion store's query API
type StorageHandlers struct {
	store   RangeReader
	decoder *schema.Decoder
}

func NewStorageHandlers(store RangeReader) *StorageHandlers {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &StorageHandlers{store: store, decoder: decoder}
}

// @Summary Power usage readings ingested in a time range
// @Tags storage
// @Produce json
// @Param start_timestamp query string true "Inclusive start, 2006-01-02T15:04:05"
// @Param end_timestamp query string true "Exclusive end, 2006-01-02T15:04:05"
// @Success 200 {array} models.PowerUsageReading
// @Failure 400 {object} errors.APIError
// @Router /power-usage [get]
func (h *StorageHandlers) GetPowerUsage(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	window, apiErr := h.parseRange(r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	readings, err := h.store.PowerUsage(r.Context(), window)
	if err != nil {
		respondWithError(w, errors.NewDatabaseError("failed to query power usage", err).WithRequestID(requestID))
		return
	}
	if readings == nil {
		readings = []models.PowerUsageReading{}
	}
	respondWithJSON(w, http.StatusOK, readings)
}

// @Summary Location readings ingested in a time range
// @Tags storage
// @Produce json
// @Param start_timestamp query string true "Inclusive start, 2006-01-02T15:04:05"
// @Param end_timestamp query string true "Exclusive end, 2006-01-02T15:04:05"
// @Success 200 {array} models.LocationReading
// @Failure 400 {object} errors.APIError
// @Router /location [get]
func (h *StorageHandlers) GetLocation(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	window, apiErr := h.parseRange(r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	readings, err := h.store.Location(r.Context(), window)
	if err != nil {
		respondWithError(w, errors.NewDatabaseError("failed to query location", err).WithRequestID(requestID))
		return
	}
	if readings == nil {
		readings = []models.LocationReading{}
	}
	respondWithJSON(w, http.StatusOK, readings)
}

func (h *StorageHandlers) parseRange(r *http.Request) (models.TimeRange, *errors.APIError) {
	var q models.RangeQuery
	if err := h.decoder.Decode(&q, r.URL.Query()); err != nil {
		return models.TimeRange{}, errors.NewValidationError("start_timestamp and end_timestamp are required", err)
	}
	window, err := q.Parse()
	if err != nil {
		return models.TimeRange{}, errors.NewValidationError("timestamps must look like "+models.DatetimeLayout, err)
	}
	return window, nil
}
