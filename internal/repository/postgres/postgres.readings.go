// FilePath: internal/repository/postgres/postgres.readings.go
package postgres

import (
	"context"
	"time"

	"github.com/fieldpulse/pipeline/internal/database"
	"github.com/fieldpulse/pipeline/internal/errors"
	"github.com/fieldpulse/pipeline/internal/models"
)

type powerUsageRow struct {
	ID            int64     `db:"id"`
	DeviceID      string    `db:"device_id"`
	DeviceType    string    `db:"device_type"`
	EnergyOutWh   float64   `db:"energy_out_wh"`
	PowerW        float64   `db:"power_w"`
	StateOfCharge float64   `db:"state_of_charge"`
	TemperatureC  float64   `db:"temperature_c"`
	Timestamp     string    `db:"timestamp"`
	DateCreated   time.Time `db:"date_created"`
	TraceID       string    `db:"trace_id"`
}

func (r powerUsageRow) toModel() models.PowerUsageReading {
	return models.PowerUsageReading{
		ID:         r.ID,
		DeviceID:   r.DeviceID,
		DeviceType: r.DeviceType,
		Timestamp:  r.Timestamp,
		PowerData: models.PowerData{
			EnergyOutWh:   r.EnergyOutWh,
			PowerW:        r.PowerW,
			StateOfCharge: r.StateOfCharge,
			TemperatureC:  r.TemperatureC,
		},
		TraceID:     r.TraceID,
		DateCreated: r.DateCreated,
	}
}

type locationRow struct {
	ID           int64     `db:"id"`
	DeviceID     string    `db:"device_id"`
	DeviceType   string    `db:"device_type"`
	GPSLatitude  float64   `db:"gps_latitude"`
	GPSLongitude float64   `db:"gps_longitude"`
	Timestamp    string    `db:"timestamp"`
	DateCreated  time.Time `db:"date_created"`
	TraceID      string    `db:"trace_id"`
}

func (r locationRow) toModel() models.LocationReading {
	return models.LocationReading{
		ID:         r.ID,
		DeviceID:   r.DeviceID,
		DeviceType: r.DeviceType,
		Timestamp:  r.Timestamp,
		LocationData: models.LocationData{
			GPSLatitude:  r.GPSLatitude,
			GPSLongitude: r.GPSLongitude,
		},
		TraceID:     r.TraceID,
		DateCreated: r.DateCreated,
	}
}

type PowerUsageRepo struct {
	PostgresBaseRepo
}

func NewPowerUsageRepository(db database.DB) *PowerUsageRepo {
	return &PowerUsageRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}}
}

// Save inserts the reading. trace_id is not unique; redelivered messages produce a second row.
func (r *PowerUsageRepo) Save(ctx context.Context, reading *models.PowerUsageReading) error {
	query := `
		INSERT INTO power_usage (
			device_id, device_type, energy_out_wh, power_w,
			state_of_charge, temperature_c, timestamp, date_created, trace_id
		) VALUES (
			:device_id, :device_type, :energy_out_wh, :power_w,
			:state_of_charge, :temperature_c, :timestamp, :date_created, :trace_id
		)`

	row := powerUsageRow{
		DeviceID:      reading.DeviceID,
		DeviceType:    reading.DeviceType,
		EnergyOutWh:   reading.PowerData.EnergyOutWh,
		PowerW:        reading.PowerData.PowerW,
		StateOfCharge: reading.PowerData.StateOfCharge,
		TemperatureC:  reading.PowerData.TemperatureC,
		Timestamp:     reading.Timestamp,
		DateCreated:   reading.DateCreated,
		TraceID:       reading.TraceID,
	}
	if _, err := r.db.GetDB().NamedExecContext(ctx, query, row); err != nil {
		return errors.NewDatabaseError("failed to save power usage reading", err)
	}
	return nil
}

// QueryRange returns readings ingested in [start, end)
func (r *PowerUsageRepo) QueryRange(ctx context.Context, tr models.TimeRange) ([]models.PowerUsageReading, error) {
	rows := []powerUsageRow{}
	query := `
		SELECT id, device_id, device_type, energy_out_wh, power_w, state_of_charge,
			temperature_c, timestamp, date_created, trace_id
		FROM power_usage
		WHERE date_created >= $1 AND date_created < $2
		ORDER BY date_created, id`

	if err := r.db.GetDB().SelectContext(ctx, &rows, query, tr.Start, tr.End); err != nil {
		return nil, errors.NewDatabaseError("failed to query power usage readings", err)
	}

	readings := make([]models.PowerUsageReading, 0, len(rows))
	for _, row := range rows {
		readings = append(readings, row.toModel())
	}
	return readings, nil
}

type LocationRepo struct {
	PostgresBaseRepo
}

func NewLocationRepository(db database.DB) *LocationRepo {
	return &LocationRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}}
}

func (r *LocationRepo) Save(ctx context.Context, reading *models.LocationReading) error {
	query := `
		INSERT INTO location (
			device_id, device_type, gps_latitude, gps_longitude,
			timestamp, date_created, trace_id
		) VALUES (
			:device_id, :device_type, :gps_latitude, :gps_longitude,
			:timestamp, :date_created, :trace_id
		)`

	row := locationRow{
		DeviceID:     reading.DeviceID,
		DeviceType:   reading.DeviceType,
		GPSLatitude:  reading.LocationData.GPSLatitude,
		GPSLongitude: reading.LocationData.GPSLongitude,
		Timestamp:    reading.Timestamp,
		DateCreated:  reading.DateCreated,
		TraceID:      reading.TraceID,
	}
	if _, err := r.db.GetDB().NamedExecContext(ctx, query, row); err != nil {
		return errors.NewDatabaseError("failed to save location reading", err)
	}
	return nil
}

func (r *LocationRepo) QueryRange(ctx context.Context, tr models.TimeRange) ([]models.LocationReading, error) {
	rows := []locationRow{}
	query := `
		SELECT id, device_id, device_type, gps_latitude, gps_longitude,
			timestamp, date_created, trace_id
		FROM location
		WHERE date_created >= $1 AND date_created < $2
		ORDER BY date_created, id`

	if err := r.db.GetDB().SelectContext(ctx, &rows, query, tr.Start, tr.End); err != nil {
		return nil, errors.NewDatabaseError("failed to query location readings", err)
	}

	readings := make([]models.LocationReading, 0, len(rows))
	for _, row := range rows {
		readings = append(readings, row.toModel())
	}
	return readings, nil
}
