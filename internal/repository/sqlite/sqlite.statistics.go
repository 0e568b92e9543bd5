// FilePath: internal/repository/sqlite/sqlite.statistics.go
package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/fieldpulse/pipeline/internal/database"
	"github.com/fieldpulse/pipeline/internal/errors"
	"github.com/fieldpulse/pipeline/internal/models"
	"github.com/fieldpulse/pipeline/internal/repository"
)

const statisticsSchema = `CREATE TABLE IF NOT EXISTS statistics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date_created TEXT NOT NULL,
	total_power_usage_events INTEGER NOT NULL,
	max_power_w REAL NOT NULL,
	average_state_of_charge REAL NOT NULL,
	max_temperature_c REAL NOT NULL,
	total_location_events INTEGER NOT NULL
)`

type statisticsRow struct {
	ID                    int64   `db:"id"`
	DateCreated           string  `db:"date_created"`
	TotalPowerUsageEvents int64   `db:"total_power_usage_events"`
	MaxPowerW             float64 `db:"max_power_w"`
	AverageStateOfCharge  float64 `db:"average_state_of_charge"`
	MaxTemperatureC       float64 `db:"max_temperature_c"`
	TotalLocationEvents   int64   `db:"total_location_events"`
}

type StatisticsRepo struct {
	SQLiteBaseRepo
}

// NewStatisticsRepository creates the statistics table if needed
func NewStatisticsRepository(ctx context.Context, db database.DB) (*StatisticsRepo, error) {
	repo := &StatisticsRepo{SQLiteBaseRepo: SQLiteBaseRepo{db: db}}
	if err := repo.migrate(ctx, statisticsSchema); err != nil {
		return nil, err
	}
	return repo, nil
}

// Save appends a snapshot; existing rows are never updated
func (r *StatisticsRepo) Save(ctx context.Context, s *models.StatisticsSnapshot) error {
	query := `
		INSERT INTO statistics (
			date_created, total_power_usage_events, max_power_w,
			average_state_of_charge, max_temperature_c, total_location_events
		) VALUES (?, ?, ?, ?, ?, ?)`

	res, err := r.db.GetDB().ExecContext(ctx, query,
		formatTime(s.DateCreated), s.TotalPowerUsageEvents, s.MaxPowerW,
		s.AverageStateOfCharge, s.MaxTemperatureC, s.TotalLocationEvents,
	)
	if err != nil {
		return errors.NewDatabaseError("failed to save statistics snapshot", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		s.ID = id
	}
	return nil
}

// Latest returns the snapshot with the largest date_created
func (r *StatisticsRepo) Latest(ctx context.Context) (*models.StatisticsSnapshot, error) {
	var row statisticsRow
	query := `SELECT * FROM statistics ORDER BY date_created DESC, id DESC LIMIT 1`

	if err := r.db.GetDB().GetContext(ctx, &row, query); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("no statistics snapshot", repository.ErrNotFound)
		}
		return nil, errors.NewDatabaseError("failed to get latest statistics", err)
	}

	created, err := parseTime(row.DateCreated)
	if err != nil {
		return nil, errors.NewDatabaseError("invalid statistics timestamp", err)
	}
	return &models.StatisticsSnapshot{
		ID:                    row.ID,
		DateCreated:           created,
		TotalPowerUsageEvents: row.TotalPowerUsageEvents,
		MaxPowerW:             row.MaxPowerW,
		AverageStateOfCharge:  row.AverageStateOfCharge,
		MaxTemperatureC:       row.MaxTemperatureC,
		TotalLocationEvents:   row.TotalLocationEvents,
	}, nil
}
