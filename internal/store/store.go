package store

import (
	"context"
	"time"
)

// Store defines the interface for weather record storage.
// Both SQLite and PostgreSQL implementations satisfy this interface.
type Store interface {
	// Upsert stores a record, overwriting temperatures, weather text,
	// and updated_at when a row with the same (location, date) exists.
	// The record's CreatedAt/UpdatedAt are populated on return.
	Upsert(ctx context.Context, rec *Record) error

	// GetLatest retrieves the newest record for a location, preferring
	// the greatest forecast date and breaking ties on updated_at.
	// Returns (nil, nil) when the location has no rows.
	GetLatest(ctx context.Context, location string) (*Record, error)

	// GetAllLatest retrieves each distinct location's newest record,
	// ordered by location name ascending.
	GetAllLatest(ctx context.Context) ([]Record, error)

	// GetStatistics reports row count, distinct locations, and the
	// on-disk size of the store.
	GetStatistics(ctx context.Context) (*Statistics, error)

	// Close closes the database connection.
	Close() error
}

// Record is the database model for one location/date forecast row.
// MaxTemp and MinTemp are nil when the source reported no value; Date
// and Weather hold the literal "-" when absent upstream.
type Record struct {
	ID        int64     `json:"-"`
	Location  string    `json:"location"`
	Date      string    `json:"date"`
	MaxTemp   *float64  `json:"max_temp"`
	MinTemp   *float64  `json:"min_temp"`
	Weather   string    `json:"weather"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Statistics holds aggregate store metrics for the health surface.
type Statistics struct {
	TotalRecords    int   `json:"total_records"`
	UniqueLocations int   `json:"unique_locations"`
	SizeBytes       int64 `json:"size_bytes"`
}
