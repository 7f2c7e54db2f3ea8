// Package database opens the local sqlite store used for basemap geometry
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Memory opens a private in-memory database
const Memory = ":memory:"

// Open opens the database at path, creating its directory and schema
func Open(path string) (*sql.DB, error) {
	if path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == Memory {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	} else {
		db.Exec("PRAGMA journal_mode=WAL")
		db.Exec("PRAGMA synchronous=NORMAL")
	}
	db.Exec("PRAGMA cache_size=10000")

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the basemap tables if they do not exist
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS basemap_segments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			layer TEXT NOT NULL,
			geometry BLOB NOT NULL,
			bbox_min_lat REAL NOT NULL,
			bbox_max_lat REAL NOT NULL,
			bbox_min_lon REAL NOT NULL,
			bbox_max_lon REAL NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_segments_bbox ON basemap_segments(
			bbox_min_lat, bbox_max_lat, bbox_min_lon, bbox_max_lon
		);

		CREATE TABLE IF NOT EXISTS basemap_sources (
			layer TEXT PRIMARY KEY,
			source_url TEXT NOT NULL,
			segments INTEGER NOT NULL,
			provisioned_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating basemap tables: %w", err)
	}
	return nil
}
