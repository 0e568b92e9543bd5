package aggregator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	apperrors "github.com/fieldpulse/pipeline/internal/errors"
	"github.com/fieldpulse/pipeline/internal/models"
	"github.com/fieldpulse/pipeline/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStats struct {
	mu      sync.Mutex
	history []models.StatisticsSnapshot
}

func (m *memoryStats) Save(_ context.Context, s *models.StatisticsSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, *s)
	return nil
}

func (m *memoryStats) Latest(context.Context) (*models.StatisticsSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return nil, apperrors.NewNotFoundError("no statistics snapshot", repository.ErrNotFound)
	}
	s := m.history[len(m.history)-1]
	return &s, nil
}

func (m *memoryStats) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

// storeQuery answers range queries from readings stamped with their ingestion time
type storeQuery struct {
	power     []models.PowerUsageReading
	locations []models.LocationReading
	err       error
	calls     []models.TimeRange
}

func (q *storeQuery) PowerUsage(_ context.Context, r models.TimeRange) ([]models.PowerUsageReading, error) {
	q.calls = append(q.calls, r)
	if q.err != nil {
		return nil, q.err
	}
	var out []models.PowerUsageReading
	for _, p := range q.power {
		if !p.DateCreated.Before(r.Start) && p.DateCreated.Before(r.End) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (q *storeQuery) Location(_ context.Context, r models.TimeRange) ([]models.LocationReading, error) {
	if q.err != nil {
		return nil, q.err
	}
	var out []models.LocationReading
	for _, l := range q.locations {
		if !l.DateCreated.Before(r.Start) && l.DateCreated.Before(r.End) {
			out = append(out, l)
		}
	}
	return out, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func power(at time.Time, soc, watts, temp float64) models.PowerUsageReading {
	return models.PowerUsageReading{
		DateCreated: at,
		PowerData:   models.PowerData{StateOfCharge: soc, PowerW: watts, TemperatureC: temp},
	}
}

func TestFirstTickSynthesizesSnapshotAtNow(t *testing.T) {
	stats := &memoryStats{}
	c := &clock{t: t0.Add(300 * time.Millisecond)}
	q := &storeQuery{power: []models.PowerUsageReading{power(t0.Add(-time.Minute), 50, 100, 20)}}
	a := New(stats, q, nil, WithClock(c.now))

	require.NoError(t, a.Tick(context.Background()))

	require.Equal(t, 1, stats.count())
	first := stats.history[0]
	assert.Equal(t, t0, first.DateCreated)
	assert.Zero(t, first.TotalPowerUsageEvents)
	assert.Equal(t, models.TimeRange{Start: t0, End: t0}, q.calls[0])
}

func TestTicksFoldOnlyNewReadings(t *testing.T) {
	stats := &memoryStats{}
	c := &clock{t: t0}
	q := &storeQuery{}
	a := New(stats, q, nil, WithClock(c.now))
	ctx := context.Background()

	require.NoError(t, a.Tick(ctx))

	q.power = append(q.power, power(t0.Add(time.Second), 40, 250, 30), power(t0.Add(2*time.Second), 60, 150, 35))
	q.locations = append(q.locations, models.LocationReading{DateCreated: t0.Add(3 * time.Second)})
	c.advance(5 * time.Second)
	require.NoError(t, a.Tick(ctx))

	q.power = append(q.power, power(t0.Add(6*time.Second), 80, 200, 50))
	c.advance(5 * time.Second)
	require.NoError(t, a.Tick(ctx))

	latest, err := a.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), latest.TotalPowerUsageEvents)
	assert.InDelta(t, 60.0, latest.AverageStateOfCharge, 1e-9)
	assert.Equal(t, 250.0, latest.MaxPowerW)
	assert.Equal(t, 50.0, latest.MaxTemperatureC)
	assert.Equal(t, int64(1), latest.TotalLocationEvents)
	assert.Equal(t, t0.Add(10*time.Second), latest.DateCreated)

	for i := 1; i < len(stats.history); i++ {
		assert.False(t, stats.history[i].DateCreated.Before(stats.history[i-1].DateCreated))
	}
}

func TestEmptyTickAdvancesOnlyDateCreated(t *testing.T) {
	stats := &memoryStats{history: []models.StatisticsSnapshot{{
		DateCreated: t0, TotalPowerUsageEvents: 4, AverageStateOfCharge: 55, MaxPowerW: 400, MaxTemperatureC: 41, TotalLocationEvents: 2,
	}}}
	c := &clock{t: t0.Add(5 * time.Second)}
	a := New(stats, &storeQuery{}, nil, WithClock(c.now))

	require.NoError(t, a.Tick(context.Background()))
	require.Equal(t, 2, stats.count())

	prev, next := stats.history[0], stats.history[1]
	assert.Equal(t, t0.Add(5*time.Second), next.DateCreated)
	next.DateCreated = prev.DateCreated
	assert.Equal(t, prev, next)
}

func TestQueryFailureLeavesStateUnchanged(t *testing.T) {
	seed := models.StatisticsSnapshot{DateCreated: t0, TotalPowerUsageEvents: 1, AverageStateOfCharge: 30}
	stats := &memoryStats{history: []models.StatisticsSnapshot{seed}}
	c := &clock{t: t0.Add(5 * time.Second)}
	q := &storeQuery{err: fmt.Errorf("%w: http://storage/power-usage returned 500", ErrQueryFailed)}
	a := New(stats, q, nil, WithClock(c.now))

	err := a.Tick(context.Background())
	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.Equal(t, 1, stats.count())

	latest, err := a.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seed, *latest)
}

func TestFoldFailureWritesNothing(t *testing.T) {
	stats := &memoryStats{history: []models.StatisticsSnapshot{{DateCreated: t0}}}
	c := &clock{t: t0.Add(5 * time.Second)}
	q := &storeQuery{power: []models.PowerUsageReading{power(t0.Add(time.Second), math.Inf(1), 1, 1)}}
	a := New(stats, q, nil, WithClock(c.now))

	assert.ErrorIs(t, a.Tick(context.Background()), ErrFold)
	assert.Equal(t, 1, stats.count())
}

func TestTickNoticeAboveThreshold(t *testing.T) {
	stats := &memoryStats{history: []models.StatisticsSnapshot{{DateCreated: t0}}}
	c := &clock{t: t0.Add(5 * time.Second)}
	q := &storeQuery{power: []models.PowerUsageReading{
		power(t0, 10, 1, 1), power(t0, 20, 1, 1), power(t0, 30, 1, 1),
	}}
	var notices []string
	a := New(stats, q, nil, WithClock(c.now), WithTickNotice(2, func(_ context.Context, msg string) {
		notices = append(notices, msg)
	}))

	require.NoError(t, a.Tick(context.Background()))
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "processed 3 events")

	c.advance(5 * time.Second)
	require.NoError(t, a.Tick(context.Background()))
	assert.Len(t, notices, 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	stats := &memoryStats{}
	a := New(stats, &storeQuery{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool { return stats.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestLatestReadErrorAbortsTick(t *testing.T) {
	a := New(failingStats{}, &storeQuery{}, nil)
	err := a.Tick(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, repository.ErrNotFound))
}

type failingStats struct{}

func (failingStats) Save(context.Context, *models.StatisticsSnapshot) error { return errors.New("locked") }
func (failingStats) Latest(context.Context) (*models.StatisticsSnapshot, error) {
	return nil, apperrors.NewDatabaseError("failed to get latest statistics", errors.New("locked"))
}
