// FilePath: internal/repository/sqlite/sqlite.anomalies.go
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

const anomalySchema = `CREATE TABLE IF NOT EXISTS anomaly_stats (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id TEXT NOT NULL,
	trace_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	anomaly_type TEXT NOT NULL,
	description TEXT NOT NULL,
	date_created TEXT NOT NULL
)`

type anomalyRow struct {
	ID          int64  `db:"id"`
	DeviceID    string `db:"device_id"`
	TraceID     string `db:"trace_id"`
	EventType   string `db:"event_type"`
	AnomalyType string `db:"anomaly_type"`
	Description string `db:"description"`
	DateCreated string `db:"date_created"`
}

type AnomalyRepo struct {
	SQLiteBaseRepo
}

func NewAnomalyRepository(ctx context.Context, db database.DB) (*AnomalyRepo, error) {
	repo := &AnomalyRepo{SQLiteBaseRepo: SQLiteBaseRepo{db: db}}
	if err := repo.migrate(ctx, anomalySchema); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *AnomalyRepo) Save(ctx context.Context, rec *models.AnomalyRecord) error {
	query := `
		INSERT INTO anomaly_stats (device_id, trace_id, event_type, anomaly_type, description, date_created)
		VALUES (?, ?, ?, ?, ?, ?)`

	res, err := r.db.GetDB().ExecContext(ctx, query,
		rec.DeviceID, rec.TraceID, string(rec.EventType), string(rec.AnomalyType),
		rec.Description, formatTime(rec.DateCreated),
	)
	if err != nil {
		return errors.NewDatabaseError("failed to save anomaly", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

func (r *AnomalyRepo) Latest(ctx context.Context) (*models.AnomalyRecord, error) {
	var row anomalyRow
	query := `SELECT * FROM anomaly_stats ORDER BY date_created DESC, id DESC LIMIT 1`

	if err := r.db.GetDB().GetContext(ctx, &row, query); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("no anomalies recorded", repository.ErrNotFound)
		}
		return nil, errors.NewDatabaseError("failed to get latest anomaly", err)
	}
	created, err := parseTime(row.DateCreated)
	if err != nil {
		return nil, errors.NewDatabaseError("invalid anomaly timestamp", err)
	}
	return &models.AnomalyRecord{
		ID:          row.ID,
		DeviceID:    row.DeviceID,
		TraceID:     row.TraceID,
		EventType:   models.EventType(row.EventType),
		AnomalyType: models.AnomalyType(row.AnomalyType),
		Description: row.Description,
		DateCreated: created,
	}, nil
}

func (r *AnomalyRepo) CountByType(ctx context.Context) (map[models.AnomalyType]int64, error) {
	var rows []struct {
		AnomalyType string `db:"anomaly_type"`
		Count       int64  `db:"count"`
	}
	query := `SELECT anomaly_type, COUNT(*) AS count FROM anomaly_stats GROUP BY anomaly_type`

	if err := r.db.GetDB().SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.NewDatabaseError("failed to count anomalies", err)
	}
	counts := make(map[models.AnomalyType]int64, len(rows))
	for _, row := range rows {
		counts[models.AnomalyType(row.AnomalyType)] = row.Count
	}
	return counts, nil
}
