// FilePath: internal/models/models.statistics.go
package models

import "time"

// StatisticsSnapshot is one row of the append-only statistics history.
// DateCreated doubles as the watermark for the next aggregation tick.
type StatisticsSnapshot struct {
	ID                    int64     `json:"-" db:"id"`
	DateCreated           time.Time `json:"date_created" db:"date_created"`
	TotalPowerUsageEvents int64     `json:"total_power_usage_events" db:"total_power_usage_events"`
	MaxPowerW             float64   `json:"max_power_W" db:"max_power_w"`
	AverageStateOfCharge  float64   `json:"average_state_of_charge" db:"average_state_of_charge"`
	MaxTemperatureC       float64   `json:"max_temperature_C" db:"max_temperature_c"`
	TotalLocationEvents   int64     `json:"total_location_events" db:"total_location_events"`
}
