// FilePath: internal/database/database.go
package database

import (
	"context"
	"fmt"

	"github.com/fieldpulse/pipeline/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	nuts "github.com/vaudience/go-nuts"
	_ "modernc.org/sqlite"
)

// DB is the handle every repository is constructed with
type DB interface {
	Close() error
	Ping(ctx context.Context) error
	GetDB() *sqlx.DB
}

// PostgresDB holds the ingestion store connection
type PostgresDB struct {
	db *sqlx.DB
}

// SQLiteDB holds a single-file store used by the derived-state services
type SQLiteDB struct {
	db *sqlx.DB
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg config.PostgresConfig) (DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to PostgreSQL: %w", err)
	}

	nuts.L.Infof("[PostgresDB] Connected to %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	return &PostgresDB{db: db}, nil
}

// NewSQLiteDB opens (and creates if needed) the SQLite file at cfg.Filename.
// ":memory:" is accepted for tests.
func NewSQLiteDB(cfg config.SQLiteConfig) (DB, error) {
	db, err := sqlx.Connect("sqlite", cfg.Filename)
	if err != nil {
		return nil, fmt.Errorf("error opening SQLite %s: %w", cfg.Filename, err)
	}
	// a single writer keeps SQLite from returning SQLITE_BUSY and keeps
	// an in-memory database alive across calls
	db.SetMaxOpenConns(1)

	nuts.L.Infof("[SQLiteDB] Opened %s", cfg.Filename)
	return &SQLiteDB{db: db}, nil
}

// WrapPostgres adapts an existing connection, e.g. one backed by sqlmock
func WrapPostgres(db *sqlx.DB) DB {
	return &PostgresDB{db: db}
}

func (p *PostgresDB) Close() error {
	return p.db.Close()
}

func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresDB) GetDB() *sqlx.DB {
	return p.db
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDB) GetDB() *sqlx.DB {
	return s.db
}
