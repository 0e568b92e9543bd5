package postgres

import (
	"context"
	"database/sql"

	"github.com/fieldpulse/pipeline/internal/database"
	"github.com/fieldpulse/pipeline/internal/errors"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS power_usage (
		id BIGSERIAL PRIMARY KEY,
		device_id VARCHAR(250) NOT NULL,
		device_type VARCHAR(250) NOT NULL,
		energy_out_wh DOUBLE PRECISION NOT NULL,
		power_w DOUBLE PRECISION NOT NULL,
		state_of_charge DOUBLE PRECISION NOT NULL,
		temperature_c DOUBLE PRECISION NOT NULL,
		timestamp VARCHAR(100) NOT NULL,
		date_created TIMESTAMP NOT NULL,
		trace_id VARCHAR(100) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS power_usage_date_created_idx ON power_usage (date_created)`,
	`CREATE TABLE IF NOT EXISTS location (
		id BIGSERIAL PRIMARY KEY,
		device_id VARCHAR(250) NOT NULL,
		device_type VARCHAR(250) NOT NULL,
		gps_latitude DOUBLE PRECISION NOT NULL,
		gps_longitude DOUBLE PRECISION NOT NULL,
		timestamp VARCHAR(100) NOT NULL,
		date_created TIMESTAMP NOT NULL,
		trace_id VARCHAR(100) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS location_date_created_idx ON location (date_created)`,
}

type PostgresBaseRepo struct {
	db database.DB
}

// Migrate creates the ingestion tables when they do not exist
func (r *PostgresBaseRepo) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresBaseRepo) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	result, err := r.db.GetDB().ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to execute query", err)
	}
	return result, nil
}

func (r *PostgresBaseRepo) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return errors.NewDatabaseError("failed to ping database", err)
	}
	return nil
}

// NewBaseRepo exposes migrations and health checks without a typed repository
func NewBaseRepo(db database.DB) *PostgresBaseRepo {
	return &PostgresBaseRepo{db: db}
}
