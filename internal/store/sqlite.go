// Package store provides the local reading cache implementations.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/weather-lookup/internal/weather"
)

// SQLiteStore is a durable weather.Cache holding one row per city.
type SQLiteStore struct {
	db     *sql.DB
	DBPath string
}

// NewSQLiteStore opens (or creates) the database at dbPath and applies the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite store: empty database path")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serialises writers; SQLite locks the file anyway.
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS weather_cache (
		city_key    TEXT PRIMARY KEY,
		city_name   TEXT NOT NULL,
		temperature REAL NOT NULL,
		condition   TEXT NOT NULL,
		description TEXT NOT NULL,
		humidity    INTEGER NOT NULL,
		observed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_weather_cache_observed_at ON weather_cache(observed_at);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteStore{db: db, DBPath: dbPath}, nil
}

// Upsert replaces any existing row for r.CityName. Rows are keyed by
// weather.CityKey so lookups match the memory store exactly.
func (s *SQLiteStore) Upsert(ctx context.Context, r weather.Reading) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weather_cache(city_key, city_name, temperature, condition, description, humidity, observed_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(city_key) DO UPDATE SET
			city_name=excluded.city_name,
			temperature=excluded.temperature,
			condition=excluded.condition,
			description=excluded.description,
			humidity=excluded.humidity,
			observed_at=excluded.observed_at`,
		weather.CityKey(r.CityName), r.CityName, r.Temperature, r.Condition, r.Description, r.Humidity, r.ObservedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert reading for %s: %w", r.CityName, err)
	}
	return nil
}

// GetByCity returns the row for city, matched case-insensitively.
func (s *SQLiteStore) GetByCity(ctx context.Context, city string) (weather.Reading, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT city_name, temperature, condition, description, humidity, observed_at
		FROM weather_cache
		WHERE city_key = ?`, weather.CityKey(city))
	return scanReading(row)
}

// GetMostRecent returns the row with the latest observation time across all cities.
func (s *SQLiteStore) GetMostRecent(ctx context.Context) (weather.Reading, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT city_name, temperature, condition, description, humidity, observed_at
		FROM weather_cache
		ORDER BY observed_at DESC
		LIMIT 1`)
	return scanReading(row)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func scanReading(row *sql.Row) (weather.Reading, bool, error) {
	var (
		r          weather.Reading
		observedMs int64
	)
	err := row.Scan(&r.CityName, &r.Temperature, &r.Condition, &r.Description, &r.Humidity, &observedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.Reading{}, false, nil
	}
	if err != nil {
		return weather.Reading{}, false, fmt.Errorf("failed to scan reading: %w", err)
	}
	r.ObservedAt = time.UnixMilli(observedMs)
	return r, true, nil
}
