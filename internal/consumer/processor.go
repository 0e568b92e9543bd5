// FilePath: internal/consumer/processor.go
package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/fieldpulse/pipeline/internal/broker"
	"github.com/fieldpulse/pipeline/internal/models"
	"github.com/fieldpulse/pipeline/internal/monitoring"
	nuts "github.com/vaudience/go-nuts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/fieldpulse/pipeline/internal/consumer")

// State is the lifecycle position of a Processor
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
	StateProcessing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateProcessing:
		return "processing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Subscription is a consumer-group membership on one topic
type Subscription interface {
	Subscribe(ctx context.Context) error
	Fetch(ctx context.Context) (broker.Message, error)
	Commit(ctx context.Context, msg broker.Message) error
}

// Handler persists the typed record carried by an envelope. Returning an error
// wrapping models.ErrMalformedEnvelope stops the processor; any other error
// leaves the message uncommitted.
type Handler interface {
	Handle(ctx context.Context, env *models.Envelope) error
}

type HandlerFunc func(ctx context.Context, env *models.Envelope) error

func (f HandlerFunc) Handle(ctx context.Context, env *models.Envelope) error {
	return f(ctx, env)
}

// Processor runs the receive, dispatch, persist, commit loop for one consumer group
type Processor struct {
	group        string
	sub          Subscription
	handler      Handler
	metrics      *monitoring.Service
	state        atomic.Int32
	onSubscribed func()
}

func NewProcessor(group string, sub Subscription, handler Handler, metrics *monitoring.Service) *Processor {
	return &Processor{
		group:   group,
		sub:     sub,
		handler: handler,
		metrics: metrics,
	}
}

// OnSubscribed registers fn to be called each time the processor joins its group
func (p *Processor) OnSubscribed(fn func()) *Processor {
	p.onSubscribed = fn
	return p
}

func (p *Processor) State() State {
	return State(p.state.Load())
}

func (p *Processor) setState(s State) {
	p.state.Store(int32(s))
}

// Run blocks until ctx is cancelled (nil) or the loop hits a fatal error:
// a failed subscribe or fetch, or a malformed envelope.
func (p *Processor) Run(ctx context.Context) error {
	defer p.setState(StateClosed)

	p.setState(StateConnecting)
	if err := p.sub.Subscribe(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", p.group, err)
	}
	p.setState(StateSubscribed)
	nuts.L.Infof("[Consumer:%s] Subscribed, waiting for messages", p.group)
	if p.onSubscribed != nil {
		p.onSubscribed()
	}

	for {
		msg, err := p.sub.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				nuts.L.Infof("[Consumer:%s] Shutting down", p.group)
				return nil
			}
			return fmt.Errorf("fetch %s: %w", p.group, err)
		}

		p.setState(StateProcessing)
		// a message already received is finished even when shutdown starts
		if err := p.process(context.WithoutCancel(ctx), msg); err != nil {
			return err
		}
		p.setState(StateSubscribed)
	}
}

func (p *Processor) process(ctx context.Context, msg broker.Message) error {
	env, err := models.DecodeEnvelope(msg.Value)
	if err != nil {
		p.metrics.MessageFailed(p.group, "malformed")
		nuts.L.Errorf("[Consumer:%s] Malformed message %s (delivery %d): %v", p.group, msg.ID, msg.Deliveries, err)
		return err
	}

	ctx, span := tracer.Start(ctx, "consumer.handle", trace.WithAttributes(
		attribute.String("trace_id", env.TraceID),
		attribute.String("event_type", string(env.Type)),
		attribute.String("group", p.group),
	))
	defer span.End()

	if err := p.handler.Handle(ctx, env); err != nil {
		span.RecordError(err)
		if errors.Is(err, models.ErrMalformedEnvelope) {
			p.metrics.MessageFailed(p.group, "malformed")
			nuts.L.Errorf("[Consumer:%s] Malformed %s event %s: %v", p.group, env.Type, env.TraceID, err)
			return err
		}
		p.metrics.MessageFailed(p.group, "persist")
		nuts.L.Errorf("[Consumer:%s] Failed to persist %s event %s, leaving it uncommitted: %v", p.group, env.Type, env.TraceID, err)
		return nil
	}

	if err := p.sub.Commit(ctx, msg); err != nil {
		p.metrics.MessageFailed(p.group, "commit")
		nuts.L.Errorf("[Consumer:%s] Failed to commit %s event %s: %v", p.group, env.Type, env.TraceID, err)
		return nil
	}

	p.metrics.MessageConsumed(p.group, string(env.Type))
	return nil
}
