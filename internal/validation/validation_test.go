package validation

import (
	"testing"

	"github.com/fieldpulse/pipeline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateReadings(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	cases := []struct {
		name  string
		t     models.EventType
		body  string
		valid bool
	}{
		{"power ok", models.EventTypePowerUsage, `{"device_id":"d","device_type":"battery","timestamp":"2024-03-01T00:00:00",
			"power_data":{"energy_out_Wh":1,"power_W":2,"state_of_charge_%":55.5,"temperature_C":30}}`, true},
		{"power missing data", models.EventTypePowerUsage, `{"device_id":"d","device_type":"battery","timestamp":"x"}`, false},
		{"soc out of range", models.EventTypePowerUsage, `{"device_id":"d","device_type":"battery","timestamp":"x",
			"power_data":{"energy_out_Wh":1,"power_W":2,"state_of_charge_%":140,"temperature_C":30}}`, false},
		{"power string value", models.EventTypePowerUsage, `{"device_id":"d","device_type":"battery","timestamp":"x",
			"power_data":{"energy_out_Wh":"1","power_W":2,"state_of_charge_%":14,"temperature_C":30}}`, false},
		{"location ok", models.EventTypeLocation, `{"device_id":"d","device_type":"tracker","timestamp":"x",
			"location_data":{"gps_latitude":49.2,"gps_longitude":-123.1}}`, true},
		{"latitude out of range", models.EventTypeLocation, `{"device_id":"d","device_type":"tracker","timestamp":"x",
			"location_data":{"gps_latitude":99,"gps_longitude":0}}`, false},
		{"not json", models.EventTypeLocation, `{`, false},
		{"unknown type", models.EventTypeAnomaly, `{}`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.t, []byte(tc.body))
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
