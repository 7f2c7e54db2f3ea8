package database

import (
	"testing"
)

func TestOpen_Memory(t *testing.T) {
	db, err := Open(Memory)
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('basemap_segments', 'basemap_sources')").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query schema: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 basemap tables, got %d", count)
	}
}
