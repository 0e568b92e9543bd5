// FilePath: internal/models/models.envelope.go
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DatetimeLayout is the second-resolution timestamp used on the wire and in range queries
const DatetimeLayout = "2006-01-02T15:04:05"

// EventType tags the payload carried by an Envelope
type EventType string

const (
	EventTypePowerUsage EventType = "power_usage"
	EventTypeLocation   EventType = "location"
	EventTypeEventLog   EventType = "event_log"
	EventTypeAnomaly    EventType = "anomaly"
)

// Valid reports whether t is one of the known event types
func (t EventType) Valid() bool {
	switch t {
	case EventTypePowerUsage, EventTypeLocation, EventTypeEventLog, EventTypeAnomaly:
		return true
	}
	return false
}

// ErrMalformedEnvelope marks a message that cannot be decoded into an Envelope or its typed payload
var ErrMalformedEnvelope = errors.New("malformed envelope")

// Envelope is the unit published to the bus. It is never modified after publish.
type Envelope struct {
	Type     EventType       `json:"type"`
	Datetime string          `json:"datetime"`
	TraceID  string          `json:"trace_id"`
	Payload  json.RawMessage `json:"payload"`
}

// Payload is implemented by everything that can travel inside an Envelope
type Payload interface {
	SetTraceID(id string)
}

// NewEnvelope stamps payload with traceID and wraps it for publishing
func NewEnvelope(t EventType, traceID string, payload Payload, now time.Time) (*Envelope, error) {
	payload.SetTraceID(traceID)
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return &Envelope{
		Type:     t,
		Datetime: now.Format(DatetimeLayout),
		TraceID:  traceID,
		Payload:  raw,
	}, nil
}

// DecodeEnvelope parses a raw bus message. Any failure wraps ErrMalformedEnvelope.
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	switch {
	case env.Type == "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEnvelope)
	case env.Datetime == "":
		return nil, fmt.Errorf("%w: missing datetime", ErrMalformedEnvelope)
	case env.TraceID == "":
		return nil, fmt.Errorf("%w: missing trace_id", ErrMalformedEnvelope)
	case len(env.Payload) == 0 || string(env.Payload) == "null":
		return nil, fmt.Errorf("%w: missing payload", ErrMalformedEnvelope)
	}
	return &env, nil
}

// DecodePayload unmarshals the envelope payload into dst
func (e *Envelope) DecodePayload(dst any) error {
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformedEnvelope, e.Type, err)
	}
	return nil
}

// Time parses the envelope datetime
func (e *Envelope) Time() (time.Time, error) {
	return time.Parse(DatetimeLayout, e.Datetime)
}
