// FilePath: internal/anomaly/rules.go
package anomaly

import (
	"fmt"
	"time"

	"github.com/fieldpulse/pipeline/internal/models"
)

// Thresholds are fixed for the lifetime of the process
type Thresholds struct {
	LowSoC   float64
	HighTemp float64
}

// Evaluate applies both rules independently. Comparisons are strict, so a
// reading exactly at a threshold is not anomalous.
func Evaluate(r models.PowerUsageReading, th Thresholds, now time.Time) []models.AnomalyRecord {
	var out []models.AnomalyRecord

	if soc := r.PowerData.StateOfCharge; soc < th.LowSoC {
		out = append(out, models.AnomalyRecord{
			DeviceID:    r.DeviceID,
			TraceID:     r.TraceID,
			EventType:   models.EventTypePowerUsage,
			AnomalyType: models.AnomalyLowSoC,
			Description: fmt.Sprintf("SoC of %g%% is below the set safe threshold of %g%%", soc, th.LowSoC),
			DateCreated: now,
		})
	}

	if temp := r.PowerData.TemperatureC; temp > th.HighTemp {
		out = append(out, models.AnomalyRecord{
			DeviceID:    r.DeviceID,
			TraceID:     r.TraceID,
			EventType:   models.EventTypePowerUsage,
			AnomalyType: models.AnomalyHighTemp,
			Description: fmt.Sprintf("Temperature of %gC is above the set safe threshold of %gC", temp, th.HighTemp),
			DateCreated: now,
		})
	}

	return out
}
