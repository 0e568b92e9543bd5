// FilePath: internal/models/models.readings.go
package models

import "time"

// PowerData holds the measurements of a power-usage reading
type PowerData struct {
	EnergyOutWh   float64 `json:"energy_out_Wh"`
	PowerW        float64 `json:"power_W"`
	StateOfCharge float64 `json:"state_of_charge_%"`
	TemperatureC  float64 `json:"temperature_C"`
}

// PowerUsageReading is a battery/power report from a field device
type PowerUsageReading struct {
	ID          int64     `json:"id,omitempty"`
	DeviceID    string    `json:"device_id"`
	DeviceType  string    `json:"device_type"`
	Timestamp   string    `json:"timestamp"`
	PowerData   PowerData `json:"power_data"`
	TraceID     string    `json:"trace_id"`
	DateCreated time.Time `json:"date_created,omitempty"`
}

func (r *PowerUsageReading) SetTraceID(id string) { r.TraceID = id }

// LocationData holds GPS coordinates
type LocationData struct {
	GPSLatitude  float64 `json:"gps_latitude"`
	GPSLongitude float64 `json:"gps_longitude"`
}

// LocationReading is a position report from a field device
type LocationReading struct {
	ID           int64        `json:"id,omitempty"`
	DeviceID     string       `json:"device_id"`
	DeviceType   string       `json:"device_type"`
	Timestamp    string       `json:"timestamp"`
	LocationData LocationData `json:"location_data"`
	TraceID      string       `json:"trace_id"`
	DateCreated  time.Time    `json:"date_created,omitempty"`
}

func (r *LocationReading) SetTraceID(id string) { r.TraceID = id }

// TimeRange is a half-open [Start, End) interval over ingestion time
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// RangeQuery is the query string accepted by the readings endpoints
type RangeQuery struct {
	StartTimestamp string `schema:"start_timestamp,required"`
	EndTimestamp   string `schema:"end_timestamp,required"`
}

// Parse converts both timestamps using DatetimeLayout
func (q RangeQuery) Parse() (TimeRange, error) {
	start, err := time.Parse(DatetimeLayout, q.StartTimestamp)
	if err != nil {
		return TimeRange{}, err
	}
	end, err := time.Parse(DatetimeLayout, q.EndTimestamp)
	if err != nil {
		return TimeRange{}, err
	}
	return TimeRange{Start: start, End: end}, nil
}
