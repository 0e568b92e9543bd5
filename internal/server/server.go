// FilePath: internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/fieldpulse/pipeline/api"
	"github.com/fieldpulse/pipeline/api/resources"
	"github.com/fieldpulse/pipeline/internal/aggregator"
	"github.com/fieldpulse/pipeline/internal/anomaly"
	"github.com/fieldpulse/pipeline/internal/audit"
	"github.com/fieldpulse/pipeline/internal/broker"
	"github.com/fieldpulse/pipeline/internal/config"
	"github.com/fieldpulse/pipeline/internal/consumer"
	"github.com/fieldpulse/pipeline/internal/database"
	"github.com/fieldpulse/pipeline/internal/eventlog"
	"github.com/fieldpulse/pipeline/internal/ingest"
	"github.com/fieldpulse/pipeline/internal/lifecycle"
	"github.com/fieldpulse/pipeline/internal/models"
	"github.com/fieldpulse/pipeline/internal/monitoring"
	"github.com/fieldpulse/pipeline/internal/repository/postgres"
	"github.com/fieldpulse/pipeline/internal/repository/sqlite"
	"github.com/fieldpulse/pipeline/internal/service"
	"github.com/fieldpulse/pipeline/internal/validation"
	nuts "github.com/vaudience/go-nuts"
	"golang.org/x/sync/errgroup"
)

// BrokerDialer connects to the event broker
type BrokerDialer func(ctx context.Context) (*broker.Handle, error)

// Server runs the HTTP surface and background workers of one pipeline service
type Server struct {
	config  *config.Config
	srv     *http.Server
	handles *service.Handles
	dial    BrokerDialer
	workers []func(context.Context) error
	closers []func() error
	started lifecycle.Notice
}

type Option func(*Server)

// WithBrokerDialer replaces the retrying Redis connector
func WithBrokerDialer(dial BrokerDialer) Option {
	return func(s *Server) { s.dial = dial }
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		config: cfg,
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
	s.dial = broker.NewConnector(broker.Config{
		Addr:       cfg.Events.Addr(),
		Password:   cfg.Events.Password,
		DB:         cfg.Events.DB,
		MaxRetries: cfg.Events.MaxRetries,
		SleepTime:  cfg.Events.SleepDuration(),
	}).Connect
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the service until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run sets the service up and blocks until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	defer s.close()
	if err := s.setup(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		nuts.L.Infof("[Server] Starting %s on %s", s.config.Service, s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	})
	for _, w := range s.workers {
		g.Go(func() error { return w(gctx) })
	}
	g.Go(func() error { return s.waitForShutdown(gctx) })

	s.announceStart()
	return g.Wait()
}

// waitForShutdown stops the HTTP server once ctx is done
func (s *Server) waitForShutdown(ctx context.Context) error {
	<-ctx.Done()
	nuts.L.Infof("[Server] Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.Server.ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// setup connects the broker, opens the stores and builds routes and workers
func (s *Server) setup(ctx context.Context) error {
	metrics := monitoring.NewService(string(s.config.Service))

	handle, err := s.dial(ctx)
	if err != nil {
		if !errors.Is(err, broker.ErrUnavailable) {
			return err
		}
		nuts.L.Errorf("[Server] Running %s without a broker: %v", s.config.Service, err)
		handle = nil
	}
	if handle != nil {
		s.closers = append(s.closers, handle.Close)
	}

	s.handles = service.New(s.config, handle, metrics)
	if err := s.handles.Validate(); err != nil {
		return err
	}
	if err := s.setupLifecycleHandlers(); err != nil {
		return err
	}

	res := &resources.Resources{}
	res.SetMetrics(metrics.Handler())
	ping, err := s.buildService(ctx, res)
	if err != nil {
		return err
	}
	res.SetHealthCheck(string(s.config.Service), ping)

	s.srv.Handler = api.NewRouter(api.Options{
		Service:     s.config.Service,
		CORSOrigins: s.config.Server.CORSAllowedOrigins,
		MetricsPath: s.config.Monitoring.MetricsPath,
		Metrics:     metrics,
	}, res)
	return nil
}

// buildService wires the components of the configured service and returns its health probe
func (s *Server) buildService(ctx context.Context, res *resources.Resources) (func(context.Context) error, error) {
	cfg := s.config
	h := s.handles

	switch cfg.Service {
	case config.ServiceReceiver:
		validator, err := validation.New()
		if err != nil {
			return nil, err
		}
		var pub resources.Publisher
		if h.Publisher != nil {
			pub = h.Publisher
		}
		res.Readings = resources.NewReadingHandlers(pub, validator)
		s.started = lifecycle.Notice{Code: models.EventCodeReceiverStarted, Message: "Receiver service successfully started"}
		return s.brokerPing(), nil

	case config.ServiceStorage:
		db, err := database.NewPostgresDB(cfg.Datastore.Postgres)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		if err := postgres.NewBaseRepo(db).Migrate(ctx); err != nil {
			return nil, err
		}
		store := ingest.NewService(postgres.NewPowerUsageRepository(db), postgres.NewLocationRepository(db))
		res.Storage = resources.NewStorageHandlers(store)
		s.addConsumer(cfg.Events.Groups.Storage, store.Router(cfg.Events.Groups.Storage), lifecycle.Notice{
			Code: models.EventCodeStorageSubscribed, Message: "Storage service subscribed to the event topic",
		})
		return db.Ping, nil

	case config.ServiceProcessing:
		db, err := s.openSQLite()
		if err != nil {
			return nil, err
		}
		stats, err := sqlite.NewStatisticsRepository(ctx, db)
		if err != nil {
			return nil, err
		}
		query := aggregator.NewHTTPQueryClient(cfg.Ingestion.PowerUsageURL, cfg.Ingestion.LocationURL, cfg.Ingestion.Timeout)
		agg := aggregator.New(stats, query, h.Metrics, aggregator.WithTickNotice(cfg.EventLog.TickNoticeThreshold,
			func(_ context.Context, message string) {
				h.Notifier.Emit(lifecycle.EventAggregationNotice, lifecycle.Notice{Code: models.EventCodeTickNotice, Message: message})
			}))
		res.Stats = resources.NewStatsHandlers(agg)
		s.workers = append(s.workers, func(ctx context.Context) error { return agg.Run(ctx, cfg.Scheduler.Period()) })
		s.started = lifecycle.Notice{Code: models.EventCodeProcessingStarted, Message: "Processing service started periodic aggregation"}
		return db.Ping, nil

	case config.ServiceAnomaly:
		db, err := s.openSQLite()
		if err != nil {
			return nil, err
		}
		repo, err := sqlite.NewAnomalyRepository(ctx, db)
		if err != nil {
			return nil, err
		}
		detector := anomaly.NewDetector(repo, anomaly.Thresholds{
			LowSoC:   cfg.Anomaly.LowSoCThreshold,
			HighTemp: cfg.Anomaly.HighTempThreshold,
		}, h.Metrics)
		res.Anomalies = resources.NewAnomalyHandlers(detector)
		s.addConsumer(cfg.Events.Groups.Anomaly, detector.Router(cfg.Events.Groups.Anomaly), lifecycle.Notice{
			Code: models.EventCodeAnomalySubscribed, Message: "Anomaly detector subscribed to the event topic",
		})
		return db.Ping, nil

	case config.ServiceEventLog:
		db, err := s.openSQLite()
		if err != nil {
			return nil, err
		}
		repo, err := sqlite.NewEventLogRepository(ctx, db)
		if err != nil {
			return nil, err
		}
		logger := eventlog.NewLogger(repo)
		res.EventLog = resources.NewEventLogHandlers(logger)
		s.addConsumer(cfg.Events.Groups.EventLog, logger.Router(cfg.Events.Groups.EventLog), lifecycle.Notice{
			Code: models.EventCodeLoggerSubscribed, Message: "Event logger subscribed to the event topic",
		})
		return db.Ping, nil

	case config.ServiceAudit:
		var scanner audit.Scanner
		if h.Broker != nil {
			scanner = h.Broker.Replayer(cfg.Events.Topic)
		}
		res.Audit = resources.NewAuditHandlers(audit.NewReader(scanner, cfg.Audit.ConsumerTimeout))
		return s.brokerPing(), nil
	}
	return nil, fmt.Errorf("unknown service %q", cfg.Service)
}

func (s *Server) openSQLite() (database.DB, error) {
	db, err := database.NewSQLiteDB(s.config.Datastore.SQLite)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, db.Close)
	return db, nil
}

// addConsumer registers a supervised group reader. Degraded services get none.
func (s *Server) addConsumer(group string, handler consumer.Handler, subscribed lifecycle.Notice) {
	h := s.handles
	if h.Degraded() {
		nuts.L.Warnf("[Server] No broker, consumer group %s not started", group)
		return
	}
	cfg := s.config
	s.workers = append(s.workers, func(ctx context.Context) error {
		return consumer.Supervise(ctx, group, cfg.Supervisor.RestartDelay, h.Metrics, func(ctx context.Context) error {
			sub := h.Broker.Consumer(broker.ConsumerOptions{
				Topic:        cfg.Events.Topic,
				Group:        group,
				Name:         cfg.Events.ConsumerName,
				BlockTimeout: cfg.Events.BlockTimeout,
				PendingSweep: cfg.Events.PendingSweep,
			})
			return consumer.NewProcessor(group, sub, handler, h.Metrics).
				OnSubscribed(func() { h.Notifier.Emit(lifecycle.EventConsumerSubscribed, subscribed) }).
				Run(ctx)
		})
	})
}

func (s *Server) brokerPing() func(context.Context) error {
	if s.handles.Degraded() {
		return nil
	}
	return s.handles.Broker.Ping
}

func (s *Server) announceStart() {
	if s.started.Code != "" {
		s.handles.Notifier.Emit(lifecycle.EventServiceStarted, s.started)
	}
}

// setupLifecycleHandlers publishes lifecycle notices as event_log envelopes
func (s *Server) setupLifecycleHandlers() error {
	h := s.handles
	for _, event := range []string{
		lifecycle.EventServiceStarted,
		lifecycle.EventConsumerSubscribed,
		lifecycle.EventAggregationNotice,
	} {
		err := h.Notifier.OnNotice(event, func(n lifecycle.Notice) {
			h.Metrics.RecordEvent(event, map[string]string{"code": n.Code})
			if h.Publisher == nil {
				nuts.L.Warnf("[Server] Dropping %s notice %s, no broker", event, n.Code)
				return
			}
			if _, err := h.Publisher.PublishEventLog(context.Background(), n.Code, n.Message); err != nil {
				nuts.L.Errorf("[Server] Failed to publish %s notice %s: %v", event, n.Code, err)
			}
		})
		if err != nil {
			return fmt.Errorf("register %s handler: %w", event, err)
		}
	}
	return nil
}

func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			nuts.L.Warnf("[Server] Close failed: %v", err)
		}
	}
	s.closers = nil
}
