// FilePath: internal/ingest/ingest.go
package ingest

import (
	"context"
	"time"

	"github.com/fieldpulse/pipeline/internal/consumer"
	"github.com/fieldpulse/pipeline/internal/models"
	"github.com/fieldpulse/pipeline/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Service persists readings from the bus and answers range queries over them
type Service struct {
	power    repository.PowerUsageRepository
	location repository.LocationRepository
	now      func() time.Time
}

func NewService(power repository.PowerUsageRepository, location repository.LocationRepository) *Service {
	return &Service{power: power, location: location, now: time.Now}
}

// Router dispatches the reading types this service stores
func (s *Service) Router(group string) *consumer.Router {
	return consumer.NewRouter(group).
		On(models.EventTypePowerUsage, consumer.HandlerFunc(s.storePowerUsage)).
		On(models.EventTypeLocation, consumer.HandlerFunc(s.storeLocation))
}

func (s *Service) storePowerUsage(ctx context.Context, env *models.Envelope) error {
	var reading models.PowerUsageReading
	if err := env.DecodePayload(&reading); err != nil {
		return err
	}
	if reading.TraceID == "" {
		reading.TraceID = env.TraceID
	}
	reading.DateCreated = s.now().UTC()

	if err := s.power.Save(ctx, &reading); err != nil {
		return err
	}
	nuts.L.Infof("[Storage] Stored power usage event with trace id %s", reading.TraceID)
	return nil
}

func (s *Service) storeLocation(ctx context.Context, env *models.Envelope) error {
	var reading models.LocationReading
	if err := env.DecodePayload(&reading); err != nil {
		return err
	}
	if reading.TraceID == "" {
		reading.TraceID = env.TraceID
	}
	reading.DateCreated = s.now().UTC()

	if err := s.location.Save(ctx, &reading); err != nil {
		return err
	}
	nuts.L.Infof("[Storage] Stored location event with trace id %s", reading.TraceID)
	return nil
}

// PowerUsage returns readings ingested in [r.Start, r.End)
func (s *Service) PowerUsage(ctx context.Context, r models.TimeRange) ([]models.PowerUsageReading, error) {
	readings, err := s.power.QueryRange(ctx, r)
	if err != nil {
		return nil, err
	}
	nuts.L.Infof("[Storage] Query for power usage between %s and %s returns %d results",
		r.Start.Format(models.DatetimeLayout), r.End.Format(models.DatetimeLayout), len(readings))
	return readings, nil
}

// Location returns readings ingested in [r.Start, r.End)
func (s *Service) Location(ctx context.Context, r models.TimeRange) ([]models.LocationReading, error) {
	readings, err := s.location.QueryRange(ctx, r)
	if err != nil {
		return nil, err
	}
	nuts.L.Infof("[Storage] Query for location between %s and %s returns %d results",
		r.Start.Format(models.DatetimeLayout), r.End.Format(models.DatetimeLayout), len(readings))
	return readings, nil
}
