package monitoring

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	nuts "github.com/vaudience/go-nuts"
)

// Service owns the Prometheus collectors of one pipeline process.
// A nil *Service is valid and records nothing.
type Service struct {
	registry *prometheus.Registry

	lifecycleEvents  *prometheus.CounterVec
	eventsPublished  *prometheus.CounterVec
	messagesConsumed *prometheus.CounterVec
	messagesFailed   *prometheus.CounterVec
	workerRestarts   *prometheus.CounterVec
	ticks            *prometheus.CounterVec
	tickDuration     prometheus.Histogram
	anomalies        *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
}

// NewService creates a registry labelled with the service name
func NewService(service string) *Service {
	registry := prometheus.NewRegistry()
	factory := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "pipeline",
			Name:        name,
			Help:        help,
			ConstLabels: prometheus.Labels{"service": service},
		}, labels)
	}

	s := &Service{
		registry:         registry,
		lifecycleEvents:  factory("lifecycle_events_total", "Lifecycle events recorded by the process", "event"),
		eventsPublished:  factory("events_published_total", "Envelopes acknowledged by the broker", "type"),
		messagesConsumed: factory("messages_consumed_total", "Messages persisted and committed", "group", "type"),
		messagesFailed:   factory("messages_failed_total", "Messages left uncommitted after a handler failure", "group", "reason"),
		workerRestarts:   factory("worker_restarts_total", "Consumer worker restarts after a fatal error", "worker"),
		ticks:            factory("aggregation_ticks_total", "Aggregation ticks by outcome", "outcome"),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "pipeline",
			Name:        "aggregation_tick_duration_seconds",
			Help:        "Duration of aggregation ticks",
			ConstLabels: prometheus.Labels{"service": service},
			Buckets:     prometheus.DefBuckets,
		}),
		anomalies:    factory("anomalies_total", "Anomalies flagged by rule", "anomaly_type"),
		httpRequests: factory("http_requests_total", "HTTP requests by route and status", "route", "code"),
	}

	registry.MustRegister(
		s.lifecycleEvents, s.eventsPublished, s.messagesConsumed, s.messagesFailed,
		s.workerRestarts, s.ticks, s.tickDuration, s.anomalies, s.httpRequests,
		collectors.NewGoCollector(),
	)
	return s
}

// Handler exposes the registry in the Prometheus text format
func (s *Service) Handler() http.Handler {
	if s == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// RecordEvent counts and logs a lifecycle event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	nuts.L.Infof("[Monitoring] Event %s recorded with labels: %v", eventName, labels)
	if s == nil {
		return
	}
	s.lifecycleEvents.WithLabelValues(eventName).Inc()
}

func (s *Service) EventPublished(eventType string) {
	if s == nil {
		return
	}
	s.eventsPublished.WithLabelValues(eventType).Inc()
}

func (s *Service) MessageConsumed(group, eventType string) {
	if s == nil {
		return
	}
	s.messagesConsumed.WithLabelValues(group, eventType).Inc()
}

func (s *Service) MessageFailed(group, reason string) {
	if s == nil {
		return
	}
	s.messagesFailed.WithLabelValues(group, reason).Inc()
}

func (s *Service) WorkerRestarted(worker string) {
	if s == nil {
		return
	}
	s.workerRestarts.WithLabelValues(worker).Inc()
}

// TickFinished records an aggregation tick outcome and its duration in seconds
func (s *Service) TickFinished(outcome string, seconds float64) {
	if s == nil {
		return
	}
	s.ticks.WithLabelValues(outcome).Inc()
	s.tickDuration.Observe(seconds)
}

func (s *Service) AnomalyFlagged(anomalyType string) {
	if s == nil {
		return
	}
	s.anomalies.WithLabelValues(anomalyType).Inc()
}

func (s *Service) HTTPRequest(route string, code int) {
	if s == nil {
		return
	}
	s.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
