// FilePath: internal/models/models.event_log.go
package models

import "time"

// Lifecycle and notice codes carried by event_log envelopes
const (
	EventCodeReceiverStarted   = "0001"
	EventCodeStorageSubscribed = "0002"
	EventCodeProcessingStarted = "0003"
	EventCodeTickNotice        = "0004"
	EventCodeAnomalySubscribed = "0005"
	EventCodeLoggerSubscribed  = "0006"
)

// EventLogPayload is the payload of an event_log envelope
type EventLogPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	TraceID string `json:"trace_id,omitempty"`
}

func (p *EventLogPayload) SetTraceID(id string) { p.TraceID = id }

// EventLogRecord is a stored lifecycle event
type EventLogRecord struct {
	ID          int64     `json:"id,omitempty" db:"id"`
	Message     string    `json:"message" db:"message"`
	Code        string    `json:"code" db:"code"`
	DateCreated time.Time `json:"date_created" db:"date_created"`
}
