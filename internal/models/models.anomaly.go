// FilePath: internal/models/models.anomaly.go
package models

import "time"

// AnomalyType names the rule that flagged a reading
type AnomalyType string

const (
	AnomalyLowSoC   AnomalyType = "LowSoC"
	AnomalyHighTemp AnomalyType = "HighTemp"
)

// AnomalyStatsLayout formats the most recent anomaly time in AnomalyStats
const AnomalyStatsLayout = "2006-01-02 15:04:05"

// AnomalyRecord is persisted for every rule a reading violates
type AnomalyRecord struct {
	ID          int64       `json:"id,omitempty" db:"id"`
	DeviceID    string      `json:"device_id" db:"device_id"`
	TraceID     string      `json:"trace_id" db:"trace_id"`
	EventType   EventType   `json:"event_type" db:"event_type"`
	AnomalyType AnomalyType `json:"anomaly_type" db:"anomaly_type"`
	Description string      `json:"description" db:"description"`
	DateCreated time.Time   `json:"date_created" db:"date_created"`
}

// AnomalyStats summarises everything the evaluator has flagged
type AnomalyStats struct {
	NumAnomalies       map[AnomalyType]int64 `json:"num_anomalies"`
	MostRecentDesc     string                `json:"most_recent_desc"`
	MostRecentDatetime string                `json:"most_recent_datetime"`
}
