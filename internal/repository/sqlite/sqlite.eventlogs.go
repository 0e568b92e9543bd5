// FilePath: internal/repository/sqlite/sqlite.eventlogs.go
package sqlite

import (
	"context"

	"github.com/fieldpulse/pipeline/internal/database"
	"github.com/fieldpulse/pipeline/internal/errors"
	"github.com/fieldpulse/pipeline/internal/models"
)

const eventLogSchema = `CREATE TABLE IF NOT EXISTS event_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	message TEXT NOT NULL,
	code TEXT NOT NULL,
	date_created TEXT NOT NULL
)`

type EventLogRepo struct {
	SQLiteBaseRepo
}

func NewEventLogRepository(ctx context.Context, db database.DB) (*EventLogRepo, error) {
	repo := &EventLogRepo{SQLiteBaseRepo: SQLiteBaseRepo{db: db}}
	if err := repo.migrate(ctx, eventLogSchema); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *EventLogRepo) Save(ctx context.Context, rec *models.EventLogRecord) error {
	query := `INSERT INTO event_logs (message, code, date_created) VALUES (?, ?, ?)`

	res, err := r.db.GetDB().ExecContext(ctx, query, rec.Message, rec.Code, formatTime(rec.DateCreated))
	if err != nil {
		return errors.NewDatabaseError("failed to save event log", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// CountByCode groups every stored event by its code
func (r *EventLogRepo) CountByCode(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Code  string `db:"code"`
		Count int64  `db:"count"`
	}
	query := `SELECT code, COUNT(*) AS count FROM event_logs GROUP BY code`

	if err := r.db.GetDB().SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.NewDatabaseError("failed to count event logs", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Code] = row.Count
	}
	return counts, nil
}
