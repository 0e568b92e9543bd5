package anomaly

import (
	"testing"
	"time"

	"github.com/fieldpulse/pipeline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(soc, temp float64) models.PowerUsageReading {
	return models.PowerUsageReading{
		DeviceID:  "dev-1",
		TraceID:   "t1",
		PowerData: models.PowerData{StateOfCharge: soc, TemperatureC: temp},
	}
}

func TestEvaluateThresholdBoundaries(t *testing.T) {
	th := Thresholds{LowSoC: 20, HighTemp: 45}
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		soc   float64
		temp  float64
		types []models.AnomalyType
	}{
		{"soc just below", 19.9, 30, []models.AnomalyType{models.AnomalyLowSoC}},
		{"soc at threshold", 20.0, 30, nil},
		{"temp at threshold", 50, 45.0, nil},
		{"temp just above", 50, 45.1, []models.AnomalyType{models.AnomalyHighTemp}},
		{"both", 5, 60, []models.AnomalyType{models.AnomalyLowSoC, models.AnomalyHighTemp}},
		{"healthy", 80, 25, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(reading(tc.soc, tc.temp), th, now)
			require.Len(t, got, len(tc.types))
			for i, rec := range got {
				assert.Equal(t, tc.types[i], rec.AnomalyType)
				assert.Equal(t, "t1", rec.TraceID)
				assert.Equal(t, now, rec.DateCreated)
			}
		})
	}
}

func TestEvaluateDescriptions(t *testing.T) {
	got := Evaluate(reading(19.9, 50.5), Thresholds{LowSoC: 20, HighTemp: 45}, time.Now())
	require.Len(t, got, 2)
	assert.Equal(t, "SoC of 19.9% is below the set safe threshold of 20%", got[0].Description)
	assert.Equal(t, "Temperature of 50.5C is above the set safe threshold of 45C", got[1].Description)
}
