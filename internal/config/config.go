// FilePath: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Service names one of the processes built into the pipeline binary
type Service string

const (
	ServiceReceiver   Service = "receiver"
	ServiceStorage    Service = "storage"
	ServiceProcessing Service = "processing"
	ServiceAnomaly    Service = "anomaly"
	ServiceEventLog   Service = "eventlog"
	ServiceAudit      Service = "audit"
)

// Services lists every known service in startup-code order
var Services = []Service{
	ServiceReceiver,
	ServiceStorage,
	ServiceProcessing,
	ServiceAnomaly,
	ServiceEventLog,
	ServiceAudit,
}

var defaultPorts = map[Service]int{
	ServiceReceiver:   8080,
	ServiceStorage:    8090,
	ServiceProcessing: 8100,
	ServiceAudit:      8110,
	ServiceEventLog:   8120,
	ServiceAnomaly:    8130,
}

// Config holds all configuration for one pipeline service
type Config struct {
	Service    Service          `mapstructure:"service"`
	Server     ServerConfig     `mapstructure:"server"`
	Events     EventsConfig     `mapstructure:"events"`
	Datastore  DatastoreConfig  `mapstructure:"datastore"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Ingestion  IngestionConfig  `mapstructure:"ingestion"`
	Anomaly    AnomalyConfig    `mapstructure:"anomaly"`
	Audit      AuditConfig      `mapstructure:"audit"`
	EventLog   EventLogConfig   `mapstructure:"event_log"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port               int           `mapstructure:"port"`
	Host               string        `mapstructure:"host"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

// EventsConfig describes the broker connection and the topic every service shares
type EventsConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	Topic        string        `mapstructure:"topic"`
	MaxRetries   int           `mapstructure:"max_retries"`
	SleepTime    int           `mapstructure:"sleep_time"`
	ConsumerName string        `mapstructure:"consumer_name"`
	BlockTimeout time.Duration `mapstructure:"block_timeout"`
	PendingSweep time.Duration `mapstructure:"pending_sweep"`
	MaxLen       int64         `mapstructure:"max_len"`
	Groups       GroupsConfig  `mapstructure:"groups"`
}

type GroupsConfig struct {
	Storage  string `mapstructure:"storage"`
	Anomaly  string `mapstructure:"anomaly"`
	EventLog string `mapstructure:"event_log"`
}

type DatastoreConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type SQLiteConfig struct {
	Filename string `mapstructure:"filename"`
}

type SchedulerConfig struct {
	PeriodSec int `mapstructure:"period_sec"`
}

// IngestionConfig points the aggregator at the storage service's query API
type IngestionConfig struct {
	PowerUsageURL string        `mapstructure:"power_usage_url"`
	LocationURL   string        `mapstructure:"location_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type AnomalyConfig struct {
	LowSoCThreshold   float64 `mapstructure:"low_soc_threshold"`
	HighTempThreshold float64 `mapstructure:"high_temp_threshold"`
}

type AuditConfig struct {
	ConsumerTimeout time.Duration `mapstructure:"consumer_timeout"`
}

type EventLogConfig struct {
	TickNoticeThreshold int `mapstructure:"tick_notice_threshold"`
}

type SupervisorConfig struct {
	RestartDelay time.Duration `mapstructure:"restart_delay"`
}

type MonitoringConfig struct {
	MetricsPath string `mapstructure:"metrics_path"`
}

// Addr returns the host:port the broker listens on
func (c EventsConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SleepDuration converts the configured sleep_time seconds to a duration
func (c EventsConfig) SleepDuration() time.Duration {
	return time.Duration(c.SleepTime) * time.Second
}

// Period returns the aggregation interval
func (c SchedulerConfig) Period() time.Duration {
	return time.Duration(c.PeriodSec) * time.Second
}

// BindFlags registers the command line flags understood by Load
func BindFlags(fs *pflag.FlagSet) {
	fs.String("service", "", "service to run: receiver, storage, processing, anomaly, eventlog, audit")
	fs.String("config", "", "directory containing config.yaml")
}

// Load builds the configuration for a service from defaults, an optional
// config.yaml and PIPELINE_ prefixed environment variables. Flags bound with
// BindFlags take precedence when fs is non-nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("error binding flags: %w", err)
		}
	}

	service := Service(v.GetString("service"))
	if !service.Valid() {
		return nil, fmt.Errorf("unknown service %q", service)
	}

	setDefaults(v, service)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir := v.GetString("config"); dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.Service = service

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// Valid reports whether s names a known service
func (s Service) Valid() bool {
	_, ok := defaultPorts[s]
	return ok
}

func setDefaults(v *viper.Viper, service Service) {
	// Server defaults
	v.SetDefault("server.port", defaultPorts[service])
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	// Broker defaults
	v.SetDefault("events.host", "localhost")
	v.SetDefault("events.port", 6379)
	v.SetDefault("events.db", 0)
	v.SetDefault("events.topic", "events")
	v.SetDefault("events.max_retries", 10)
	v.SetDefault("events.sleep_time", 5)
	v.SetDefault("events.consumer_name", string(service)+"-1")
	v.SetDefault("events.block_timeout", "5s")
	v.SetDefault("events.pending_sweep", "30s")
	v.SetDefault("events.max_len", 0)
	v.SetDefault("events.groups.storage", "storage_group")
	v.SetDefault("events.groups.anomaly", "anomaly_group")
	v.SetDefault("events.groups.event_log", "event_log_group")

	// Datastore defaults
	v.SetDefault("datastore.postgres.port", 5432)
	v.SetDefault("datastore.postgres.sslmode", "disable")
	v.SetDefault("datastore.sqlite.filename", string(service)+".sqlite")

	v.SetDefault("scheduler.period_sec", 5)

	v.SetDefault("ingestion.power_usage_url", "http://localhost:8090/power-usage")
	v.SetDefault("ingestion.location_url", "http://localhost:8090/location")
	v.SetDefault("ingestion.timeout", "10s")

	v.SetDefault("anomaly.low_soc_threshold", 20)
	v.SetDefault("anomaly.high_temp_threshold", 45)

	v.SetDefault("audit.consumer_timeout", "1s")
	v.SetDefault("event_log.tick_notice_threshold", 25)
	v.SetDefault("supervisor.restart_delay", "5s")

	v.SetDefault("monitoring.metrics_path", "/metrics")
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port must be positive")
	}
	if config.Events.Topic == "" {
		return fmt.Errorf("events topic is required")
	}
	if config.Events.ConsumerName == "" {
		return fmt.Errorf("events consumer_name is required")
	}
	switch config.Service {
	case ServiceStorage:
		if config.Datastore.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
	case ServiceProcessing:
		if config.Scheduler.PeriodSec <= 0 {
			return fmt.Errorf("scheduler period_sec must be positive")
		}
		if config.Ingestion.PowerUsageURL == "" || config.Ingestion.LocationURL == "" {
			return fmt.Errorf("ingestion query urls are required")
		}
		if config.Datastore.SQLite.Filename == "" {
			return fmt.Errorf("sqlite filename is required")
		}
	case ServiceAnomaly, ServiceEventLog:
		if config.Datastore.SQLite.Filename == "" {
			return fmt.Errorf("sqlite filename is required")
		}
	case ServiceAudit:
		if config.Audit.ConsumerTimeout <= 0 {
			return fmt.Errorf("audit consumer_timeout must be positive")
		}
	}
	return nil
}
