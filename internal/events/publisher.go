// FilePath: internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fieldpulse/pipeline/internal/models"
	"github.com/fieldpulse/pipeline/internal/monitoring"
	"github.com/google/uuid"
	nuts "github.com/vaudience/go-nuts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/fieldpulse/pipeline/internal/events")

// Producer is the synchronous write side of a topic
type Producer interface {
	Produce(ctx context.Context, value []byte) (string, error)
}

// Publisher wraps readings in envelopes and writes them to the bus
type Publisher struct {
	producer Producer
	metrics  *monitoring.Service
	now      func() time.Time
	newID    func() string
}

func NewPublisher(producer Producer, metrics *monitoring.Service) *Publisher {
	return &Publisher{
		producer: producer,
		metrics:  metrics,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Publish assigns a fresh trace id, stamps it into payload and returns once the
// broker acknowledged the envelope. Nothing is batched or retried here.
func (p *Publisher) Publish(ctx context.Context, t models.EventType, payload models.Payload) (string, error) {
	traceID := p.newID()

	ctx, span := tracer.Start(ctx, "events.publish")
	defer span.End()
	span.SetAttributes(attribute.String("trace_id", traceID), attribute.String("event_type", string(t)))

	nuts.L.Infof("[Publisher] Received %s event with trace id %s", t, traceID)

	env, err := models.NewEnvelope(t, traceID, payload, p.now())
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("encode envelope: %w", err)
	}

	if _, err := p.producer.Produce(ctx, raw); err != nil {
		span.RecordError(err)
		nuts.L.Errorf("[Publisher] Failed to publish %s event %s: %v", t, traceID, err)
		return "", err
	}

	p.metrics.EventPublished(string(t))
	nuts.L.Infof("[Publisher] Published %s event with trace id %s", t, traceID)
	return traceID, nil
}

// PublishEventLog emits a lifecycle event_log envelope
func (p *Publisher) PublishEventLog(ctx context.Context, code, message string) (string, error) {
	return p.Publish(ctx, models.EventTypeEventLog, &models.EventLogPayload{Code: code, Message: message})
}
