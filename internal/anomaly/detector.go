// FilePath: internal/anomaly/detector.go
package anomaly

import (
	"context"
	"time"

	"github.com/fieldpulse/pipeline/internal/consumer"
	"github.com/fieldpulse/pipeline/internal/models"
	"github.com/fieldpulse/pipeline/internal/monitoring"
	"github.com/fieldpulse/pipeline/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Detector evaluates power-usage readings and stores the anomalies found
type Detector struct {
	repo       repository.AnomalyRepository
	thresholds Thresholds
	metrics    *monitoring.Service
	now        func() time.Time
}

func NewDetector(repo repository.AnomalyRepository, thresholds Thresholds, metrics *monitoring.Service) *Detector {
	return &Detector{repo: repo, thresholds: thresholds, metrics: metrics, now: time.Now}
}

func (d *Detector) Router(group string) *consumer.Router {
	return consumer.NewRouter(group).On(models.EventTypePowerUsage, consumer.HandlerFunc(d.evaluate))
}

func (d *Detector) evaluate(ctx context.Context, env *models.Envelope) error {
	var reading models.PowerUsageReading
	if err := env.DecodePayload(&reading); err != nil {
		return err
	}
	if reading.TraceID == "" {
		reading.TraceID = env.TraceID
	}

	for _, rec := range Evaluate(reading, d.thresholds, d.now().UTC()) {
		if err := d.repo.Save(ctx, &rec); err != nil {
			return err
		}
		d.metrics.AnomalyFlagged(string(rec.AnomalyType))
		nuts.L.Infof("[AnomalyDetector] %s anomaly for device %s, trace id %s: %s",
			rec.AnomalyType, rec.DeviceID, rec.TraceID, rec.Description)
	}
	return nil
}

// Stats returns counts per anomaly type and the most recent anomaly.
// It returns a not-found error when nothing has been flagged yet.
func (d *Detector) Stats(ctx context.Context) (*models.AnomalyStats, error) {
	latest, err := d.repo.Latest(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := d.repo.CountByType(ctx)
	if err != nil {
		return nil, err
	}
	return &models.AnomalyStats{
		NumAnomalies:       counts,
		MostRecentDesc:     latest.Description,
		MostRecentDatetime: latest.DateCreated.Format(models.AnomalyStatsLayout),
	}, nil
}
