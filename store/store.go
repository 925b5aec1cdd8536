package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a keyed lookup matches nothing.
var ErrNotFound = errors.New("store: not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS trains (
		train_instance_id TEXT PRIMARY KEY,
		vehicle_journey_id TEXT NOT NULL,
		service_date DATE NOT NULL,

		stop_area_id TEXT NOT NULL,
		train_type TEXT,

		scheduled_time TIMESTAMP NOT NULL,
		realtime_time TIMESTAMP,

		delay_seconds INTEGER,
		possibly_cancelled BOOLEAN,

		observation_count INTEGER,
		seen_scheduled_tier BOOLEAN,
		seen_realtime_tier BOOLEAN,

		last_seen_delta_seconds INTEGER,
		last_poll_timestamp TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trains_last_poll
		ON trains(last_poll_timestamp)`,
	`CREATE TABLE IF NOT EXISTS stations (
		stop_area_id TEXT PRIMARY KEY,
		name TEXT,
		latitude REAL,
		longitude REAL,
		timezone TEXT,
		administrative_region TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS calendar (
		date DATE PRIMARY KEY,
		weekday INTEGER,
		is_weekend BOOLEAN,
		is_holiday_fr BOOLEAN,
		month INTEGER,
		season TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS weather (
		stop_area_id TEXT,
		weather_hour TIMESTAMP,

		temperature REAL,
		precipitation REAL,
		snowfall REAL,
		wind_speed REAL,
		wind_gust REAL,
		visibility REAL,
		weather_code INTEGER,

		PRIMARY KEY (stop_area_id, weather_hour)
	)`,
}

// Store wraps the SQLite database holding all pipeline state.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and ensures
// the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	return initStore(db)
}

// OpenMemory opens a private in-memory database, used by tests.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// An in-memory database exists per connection; keep a single one.
	db.SetMaxOpenConns(1)
	return initStore(db)
}

func initStore(db *sql.DB) (*Store, error) {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for read-only consumers (export).
func (s *Store) DB() *sql.DB { return s.db }

// Begin starts a transaction for a batched ingest window.
func (s *Store) Begin() (*sql.Tx, error) { return s.db.Begin() }

func (s *Store) Close() error { return s.db.Close() }

// execer lets train-state primitives run either directly against the
// database or inside a caller-held transaction.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}
