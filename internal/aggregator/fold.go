package aggregator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/fieldpulse/pipeline/internal/models"
)

// ErrFold aborts a tick before anything is written
var ErrFold = errors.New("aggregation fold failed")

// Fold merges newly ingested readings into prev and returns the next snapshot
// stamped with now. The mean is updated from the pre-fold totals so that it
// stays exact however readings are split across ticks.
func Fold(prev models.StatisticsSnapshot, power []models.PowerUsageReading, locations []models.LocationReading, now time.Time) (models.StatisticsSnapshot, error) {
	next := prev
	next.ID = 0
	next.DateCreated = now

	if len(power) > 0 {
		var socSum float64
		for _, r := range power {
			pd := r.PowerData
			if !finite(pd.PowerW) || !finite(pd.StateOfCharge) || !finite(pd.TemperatureC) {
				return prev, fmt.Errorf("%w: non-finite measurement in trace %s", ErrFold, r.TraceID)
			}
			next.MaxPowerW = math.Max(next.MaxPowerW, pd.PowerW)
			next.MaxTemperatureC = math.Max(next.MaxTemperatureC, pd.TemperatureC)
			socSum += pd.StateOfCharge
		}

		n := int64(len(power))
		total := prev.TotalPowerUsageEvents + n
		next.AverageStateOfCharge = (prev.AverageStateOfCharge*float64(prev.TotalPowerUsageEvents) + socSum) / float64(total)
		next.TotalPowerUsageEvents = total
	}

	next.TotalLocationEvents = prev.TotalLocationEvents + int64(len(locations))
	return next, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
