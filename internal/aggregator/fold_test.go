package aggregator

import (
	"math"
	"testing"
	"time"

	"github.com/fieldpulse/pipeline/internal/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func powerReadings(socs ...float64) []models.PowerUsageReading {
	out := make([]models.PowerUsageReading, len(socs))
	for i, soc := range socs {
		out[i] = models.PowerUsageReading{PowerData: models.PowerData{StateOfCharge: soc, PowerW: soc * 10, TemperatureC: soc / 2}}
	}
	return out
}

func TestFoldIncrementalMean(t *testing.T) {
	prev := models.StatisticsSnapshot{TotalPowerUsageEvents: 2, AverageStateOfCharge: 50, MaxPowerW: 900, MaxTemperatureC: 10}
	now := time.Date(2024, 3, 1, 10, 0, 5, 0, time.UTC)

	next, err := Fold(prev, powerReadings(20, 80, 20), make([]models.LocationReading, 4), now)
	require.NoError(t, err)

	assert.Equal(t, int64(5), next.TotalPowerUsageEvents)
	assert.InDelta(t, 44.0, next.AverageStateOfCharge, 1e-9)
	assert.Equal(t, 900.0, next.MaxPowerW)
	assert.Equal(t, 40.0, next.MaxTemperatureC)
	assert.Equal(t, int64(4), next.TotalLocationEvents)
	assert.Equal(t, now, next.DateCreated)
}

func TestFoldEmptyOnlyAdvancesWatermark(t *testing.T) {
	prev := models.StatisticsSnapshot{
		ID: 3, DateCreated: time.Unix(100, 0), TotalPowerUsageEvents: 7, AverageStateOfCharge: 61.5,
		MaxPowerW: 321, MaxTemperatureC: 44, TotalLocationEvents: 9,
	}
	now := time.Unix(105, 0)

	next, err := Fold(prev, nil, nil, now)
	require.NoError(t, err)

	expected := prev
	expected.ID = 0
	expected.DateCreated = now
	assert.Equal(t, expected, next)
}

func TestFoldRejectsNonFiniteValues(t *testing.T) {
	prev := models.StatisticsSnapshot{TotalPowerUsageEvents: 1, AverageStateOfCharge: 10}
	readings := powerReadings(30, 40)
	readings[1].PowerData.StateOfCharge = math.NaN()

	got, err := Fold(prev, readings, nil, time.Now())
	assert.ErrorIs(t, err, ErrFold)
	assert.Equal(t, prev, got)
}

func foldInBatches(socs []float64, batch int) models.StatisticsSnapshot {
	var snap models.StatisticsSnapshot
	readings := powerReadings(socs...)
	for start := 0; start < len(readings); start += batch {
		end := start + batch
		if end > len(readings) {
			end = len(readings)
		}
		snap, _ = Fold(snap, readings[start:end], nil, time.Time{})
	}
	return snap
}

func TestFoldProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("mean equals true mean under any batching", prop.ForAll(
		func(socs []float64, batch int) bool {
			if len(socs) == 0 {
				return true
			}
			var sum float64
			for _, s := range socs {
				sum += s
			}
			want := sum / float64(len(socs))
			snap := foldInBatches(socs, batch)
			return snap.TotalPowerUsageEvents == int64(len(socs)) && math.Abs(snap.AverageStateOfCharge-want) < 1e-6
		},
		gen.SliceOf(gen.Float64Range(0, 100)),
		gen.IntRange(1, 12),
	))

	properties.Property("batching does not change the result", prop.ForAll(
		func(socs []float64, a, b int) bool {
			x, y := foldInBatches(socs, a), foldInBatches(socs, b)
			return x.TotalPowerUsageEvents == y.TotalPowerUsageEvents &&
				x.MaxPowerW == y.MaxPowerW &&
				x.MaxTemperatureC == y.MaxTemperatureC &&
				math.Abs(x.AverageStateOfCharge-y.AverageStateOfCharge) < 1e-6
		},
		gen.SliceOf(gen.Float64Range(0, 100)),
		gen.IntRange(1, 12),
		gen.IntRange(1, 12),
	))

	properties.Property("maxima never decrease across snapshots", prop.ForAll(
		func(socs []float64) bool {
			var snap models.StatisticsSnapshot
			for _, r := range powerReadings(socs...) {
				next, err := Fold(snap, []models.PowerUsageReading{r}, nil, time.Time{})
				if err != nil || next.MaxPowerW < snap.MaxPowerW || next.MaxTemperatureC < snap.MaxTemperatureC {
					return false
				}
				snap = next
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(0, 100)),
	))

	properties.TestingRun(t)
}
