package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed pgmigrations/*.sql
var pgMigrations embed.FS

// PostgresStore implements Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a PostgreSQL connection and runs migrations.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	goose.SetBaseFS(pgMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db, "pgmigrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// DB returns the underlying database connection for migration commands.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Upsert(ctx context.Context, rec *Record) error {
	now := time.Now().UTC()
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO weather_records
				(location, date, max_temp, min_temp, weather, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT(location, date) DO UPDATE SET
				max_temp=EXCLUDED.max_temp,
				min_temp=EXCLUDED.min_temp,
				weather=EXCLUDED.weather,
				updated_at=EXCLUDED.updated_at`,
			rec.Location, rec.Date,
			nullFloat(rec.MaxTemp), nullFloat(rec.MinTemp),
			rec.Weather, now, now,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("upserting record: %w", err)
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return nil
}

func (s *PostgresStore) GetLatest(ctx context.Context, location string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, location, date, max_temp, min_temp, weather, created_at, updated_at
		FROM weather_records
		WHERE location = $1
		ORDER BY date DESC, updated_at DESC
		LIMIT 1`, location)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) GetAllLatest(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, location, date, max_temp, min_temp, weather, created_at, updated_at
		FROM (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY location
				ORDER BY date DESC, updated_at DESC
			) AS rn
			FROM weather_records
		) ranked
		WHERE rn = 1
		ORDER BY location`)
	if err != nil {
		return nil, fmt.Errorf("querying latest records: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	return scanRecords(rows)
}

func (s *PostgresStore) GetStatistics(ctx context.Context) (*Statistics, error) {
	var stats Statistics
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT location)
		FROM weather_records`).Scan(&stats.TotalRecords, &stats.UniqueLocations)
	if err != nil {
		return nil, fmt.Errorf("querying statistics: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT pg_total_relation_size('weather_records')`).Scan(&stats.SizeBytes)
	if err != nil {
		return nil, fmt.Errorf("querying relation size: %w", err)
	}
	return &stats, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
