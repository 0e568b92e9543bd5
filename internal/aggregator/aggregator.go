// FilePath: internal/aggregator/aggregator.go
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldpulse/pipeline/internal/models"
	"github.com/fieldpulse/pipeline/internal/monitoring"
	"github.com/fieldpulse/pipeline/internal/repository"
	nuts "github.com/vaudience/go-nuts"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/fieldpulse/pipeline/internal/aggregator")

// Aggregator reconciles the statistics watermark against newly stored readings
type Aggregator struct {
	stats   repository.StatisticsRepository
	query   QueryClient
	metrics *monitoring.Service
	now     func() time.Time

	noticeThreshold int
	notify          func(ctx context.Context, message string)
}

type Option func(*Aggregator)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithTickNotice calls notify when a single tick folds more than threshold readings
func WithTickNotice(threshold int, notify func(ctx context.Context, message string)) Option {
	return func(a *Aggregator) {
		a.noticeThreshold = threshold
		a.notify = notify
	}
}

func New(stats repository.StatisticsRepository, query QueryClient, metrics *monitoring.Service, opts ...Option) *Aggregator {
	a := &Aggregator{stats: stats, query: query, metrics: metrics, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run ticks every period until ctx is cancelled. Ticks never overlap; a tick
// that falls due while one is running is dropped.
func (a *Aggregator) Run(ctx context.Context, period time.Duration) error {
	nuts.L.Infof("[Aggregator] Scheduling ticks every %s", period)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			nuts.L.Infof("[Aggregator] Stopped")
			return nil
		case <-ticker.C:
			// a started tick runs to completion
			if err := a.Tick(context.WithoutCancel(ctx)); err != nil {
				nuts.L.Errorf("[Aggregator] Tick aborted: %v", err)
			}
		}
	}
}

// Tick performs one read, query, fold, write cycle. On any error nothing is written.
func (a *Aggregator) Tick(ctx context.Context) error {
	started := time.Now()
	ctx, span := tracer.Start(ctx, "aggregator.tick")
	defer span.End()

	// ranges travel at second resolution, so the watermark does too
	now := a.now().UTC().Truncate(time.Second)
	nuts.L.Infof("[Aggregator] Periodic processing has started")

	current, err := a.stats.Latest(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			a.finish("store_error", started)
			return fmt.Errorf("read latest snapshot: %w", err)
		}
		current = &models.StatisticsSnapshot{DateCreated: now}
	}
	if now.Before(current.DateCreated) {
		now = current.DateCreated
	}

	window := models.TimeRange{Start: current.DateCreated, End: now}
	power, err := a.query.PowerUsage(ctx, window)
	if err != nil {
		span.RecordError(err)
		a.finish("query_failed", started)
		return err
	}
	locations, err := a.query.Location(ctx, window)
	if err != nil {
		span.RecordError(err)
		a.finish("query_failed", started)
		return err
	}
	nuts.L.Infof("[Aggregator] Received %d power usage and %d location events between %s and %s",
		len(power), len(locations), window.Start.Format(models.DatetimeLayout), window.End.Format(models.DatetimeLayout))

	next, err := Fold(*current, power, locations, now)
	if err != nil {
		span.RecordError(err)
		a.finish("fold_failed", started)
		return err
	}

	if err := a.stats.Save(ctx, &next); err != nil {
		a.finish("store_error", started)
		return fmt.Errorf("save snapshot: %w", err)
	}
	a.finish("ok", started)
	nuts.L.Infof("[Aggregator] Snapshot written: %d power usage events, max %.2fW, avg SoC %.2f%%, max %.2fC, %d location events",
		next.TotalPowerUsageEvents, next.MaxPowerW, next.AverageStateOfCharge, next.MaxTemperatureC, next.TotalLocationEvents)

	if folded := len(power) + len(locations); a.notify != nil && a.noticeThreshold > 0 && folded > a.noticeThreshold {
		a.notify(ctx, fmt.Sprintf("processed %d events in one period, above %d", folded, a.noticeThreshold))
	}
	return nil
}

// Current returns the latest snapshot for the stats API
func (a *Aggregator) Current(ctx context.Context) (*models.StatisticsSnapshot, error) {
	return a.stats.Latest(ctx)
}

func (a *Aggregator) finish(outcome string, started time.Time) {
	a.metrics.TickFinished(outcome, time.Since(started).Seconds())
}
