// FilePath: api/resources/api.resource.readings.go
package resources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/fieldpulse/pipeline/internal/errors"
	"github.com/fieldpulse/pipeline/internal/models"
	"github.com/fieldpulse/pipeline/internal/validation"
	nuts "github.com/vaudience/go-nuts"
)

// maxBodyBytes bounds a single device report
const maxBodyBytes = 1 << 20

// Publisher writes a reading to the bus and returns its trace id
type Publisher interface {
	Publish(ctx context.Context, t models.EventType, payload models.Payload) (string, error)
}

// ReadingHandlers accept device reports and publish them.
// A nil publisher answers 503 until the service is restarted with a broker.
type ReadingHandlers struct {
	publisher Publisher
	validator *validation.Validator
}

func NewReadingHandlers(publisher Publisher, validator *validation.Validator) *ReadingHandlers {
	return &ReadingHandlers{publisher: publisher, validator: validator}
}

// @Summary Report a power usage reading
// @Tags receiver
// @Accept json
// @Param reading body models.PowerUsageReading true "Power usage reading"
// @Success 201
// @Failure 400 {object} errors.APIError
// @Failure 503 {object} errors.APIError
// @Router /power-usage [post]
func (h *ReadingHandlers) PostPowerUsage(w http.ResponseWriter, r *http.Request) {
	h.publish(w, r, models.EventTypePowerUsage, &models.PowerUsageReading{})
}

// @Summary Report a location reading
// @Tags receiver
// @Accept json
// @Param reading body models.LocationReading true "Location reading"
// @Success 201
// @Failure 400 {object} errors.APIError
// @Failure 503 {object} errors.APIError
// @Router /location [post]
func (h *ReadingHandlers) PostLocation(w http.ResponseWriter, r *http.Request) {
	h.publish(w, r, models.EventTypeLocation, &models.LocationReading{})
}

func (h *ReadingHandlers) publish(w http.ResponseWriter, r *http.Request, t models.EventType, payload models.Payload) {
	requestID := nuts.NID("req", 12)

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondWithError(w, errors.NewValidationError("failed to read request body", err).WithRequestID(requestID))
		return
	}
	if err := h.validator.Validate(t, raw); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if err := json.Unmarshal(raw, payload); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	if h.publisher == nil {
		respondWithError(w, errors.NewUnavailableError("event broker unavailable", nil).WithRequestID(requestID))
		return
	}
	traceID, err := h.publisher.Publish(r.Context(), t, payload)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to publish "+string(t)+" event", err).WithRequestID(requestID))
		return
	}

	w.Header().Set("X-Trace-Id", traceID)
	w.WriteHeader(http.StatusCreated)
}
