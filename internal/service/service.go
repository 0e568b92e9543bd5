package service

import (
	"github.com/fieldpulse/pipeline/internal/broker"
	"github.com/fieldpulse/pipeline/internal/config"
	"github.com/fieldpulse/pipeline/internal/errors"
	"github.com/fieldpulse/pipeline/internal/events"
	"github.com/fieldpulse/pipeline/internal/lifecycle"
	"github.com/fieldpulse/pipeline/internal/monitoring"
)

// Handles carries the process-wide dependencies into component constructors.
// Broker and Publisher are nil while the service runs degraded.
type Handles struct {
	Config    *config.Config
	Broker    *broker.Handle
	Publisher *events.Publisher
	Metrics   *monitoring.Service
	Notifier  *lifecycle.Notifier
}

// New creates the handles for one service. A nil broker leaves the service degraded.
func New(cfg *config.Config, handle *broker.Handle, metrics *monitoring.Service) *Handles {
	h := &Handles{
		Config:   cfg,
		Broker:   handle,
		Metrics:  metrics,
		Notifier: lifecycle.New(),
	}
	if handle != nil {
		h.Publisher = events.NewPublisher(handle.Producer(cfg.Events.Topic, cfg.Events.MaxLen), metrics)
	}
	return h
}

// Degraded reports whether the broker could not be reached at startup
func (h *Handles) Degraded() bool {
	return h.Broker == nil
}

// Validate checks if all required handles are initialized
func (h *Handles) Validate() error {
	if h.Config == nil {
		return ErrMissingHandle("config")
	}
	if h.Metrics == nil {
		return ErrMissingHandle("metrics")
	}
	if h.Notifier == nil {
		return ErrMissingHandle("notifier")
	}
	if h.Broker != nil && h.Publisher == nil {
		return ErrMissingHandle("publisher")
	}
	return nil
}

func ErrMissingHandle(name string) error {
	return errors.NewInternalError("missing handle: "+name, nil)
}
