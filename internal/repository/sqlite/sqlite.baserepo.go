package sqlite

import (
	"context"
	"time"

	"github.com/fieldpulse/pipeline/internal/database"
	"github.com/fieldpulse/pipeline/internal/errors"
)

// timeLayout is fixed width so that lexical order on the TEXT column is chronological
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

type SQLiteBaseRepo struct {
	db database.DB
}

func (r *SQLiteBaseRepo) migrate(ctx context.Context, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := r.db.GetDB().ExecContext(ctx, stmt); err != nil {
			return errors.NewDatabaseError("failed to create schema", err)
		}
	}
	return nil
}

func (r *SQLiteBaseRepo) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return errors.NewDatabaseError("failed to ping database", err)
	}
	return nil
}
