// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"errors"

	"github.com/fieldpulse/pipeline/internal/models"
)

var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")
)

// PowerUsageRepository stores ingested power-usage readings
type PowerUsageRepository interface {
	Save(ctx context.Context, reading *models.PowerUsageReading) error
	QueryRange(ctx context.Context, r models.TimeRange) ([]models.PowerUsageReading, error)
}

// LocationRepository stores ingested location readings
type LocationRepository interface {
	Save(ctx context.Context, reading *models.LocationReading) error
	QueryRange(ctx context.Context, r models.TimeRange) ([]models.LocationReading, error)
}

// StatisticsRepository is the append-only snapshot history
type StatisticsRepository interface {
	Save(ctx context.Context, snapshot *models.StatisticsSnapshot) error
	// Latest returns ErrNotFound when no snapshot exists yet
	Latest(ctx context.Context) (*models.StatisticsSnapshot, error)
}

// AnomalyRepository stores flagged readings
type AnomalyRepository interface {
	Save(ctx context.Context, record *models.AnomalyRecord) error
	Latest(ctx context.Context) (*models.AnomalyRecord, error)
	CountByType(ctx context.Context) (map[models.AnomalyType]int64, error)
}

// EventLogRepository stores lifecycle events
type EventLogRepository interface {
	Save(ctx context.Context, record *models.EventLogRecord) error
	CountByCode(ctx context.Context) (map[string]int64, error)
}
