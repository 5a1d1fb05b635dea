package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS hotels (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            province_code TEXT NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS rooms (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            hotel_id INTEGER NOT NULL,
            number TEXT NOT NULL,
            capacity INTEGER NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            UNIQUE(hotel_id, number)
        )`,
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            full_name TEXT NOT NULL,
            national_code TEXT UNIQUE NOT NULL,
            phone TEXT,
            role TEXT NOT NULL,
            province_code TEXT,
            hotel_id INTEGER,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS dependents (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            employee_national_code TEXT NOT NULL,
            full_name TEXT NOT NULL,
            national_code TEXT NOT NULL,
            UNIQUE(employee_national_code, national_code)
        )`,
		`CREATE TABLE IF NOT EXISTS booking_requests (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            tracking_code TEXT UNIQUE NOT NULL,
            employee_national_code TEXT NOT NULL,
            employee_province_code TEXT,
            submitter_id INTEGER NOT NULL,
            hotel_id INTEGER NOT NULL,
            check_in DATETIME NOT NULL,
            check_out DATETIME NOT NULL,
            guest_count INTEGER NOT NULL,
            notes TEXT,
            status TEXT NOT NULL,
            assigned_room_id INTEGER,
            submitted_at DATETIME NOT NULL,
            status_updated_at DATETIME NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS guests (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            request_id INTEGER NOT NULL,
            full_name TEXT NOT NULL,
            national_code TEXT NOT NULL,
            relation TEXT NOT NULL,
            discount_percent INTEGER NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS status_history (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            request_id INTEGER NOT NULL,
            old_status TEXT,
            new_status TEXT NOT NULL,
            actor_id INTEGER NOT NULL,
            comment TEXT,
            created_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS request_files (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            request_id INTEGER NOT NULL,
            file_name TEXT NOT NULL,
            path TEXT NOT NULL,
            uploaded_by INTEGER NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS sync_tasks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            request_id INTEGER NOT NULL,
            payload TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            error TEXT,
            next_retry_at DATETIME,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_requests_status ON booking_requests(status)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_hotel_id ON booking_requests(hotel_id)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_submitter ON booking_requests(submitter_id)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_employee ON booking_requests(employee_national_code)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_province ON booking_requests(employee_province_code)`,
		`CREATE INDEX IF NOT EXISTS idx_guests_request ON guests(request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_history_request ON status_history(request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_files_request ON request_files(request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_hotel ON rooms(hotel_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_status ON sync_tasks(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}
