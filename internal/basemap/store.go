// Package basemap stores and serves the coastline geometry drawn beneath the
// map markers.
package basemap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

const (
	// LayerCoastline is the layer name of the coastline geometry
	LayerCoastline = "coastline"

	// lines are split into segments of at most this many points so the
	// bounding-box index stays selective
	maxSegmentPoints = 64

	maxQueryRows = 50000
)

// Store reads and writes basemap segments in sqlite
type Store struct {
	db    *sql.DB
	layer string
}

// NewStore wraps a database opened with database.Open
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, layer: LayerCoastline}
}

// Provisioned reports whether the layer has been loaded
func (s *Store) Provisioned(ctx context.Context) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM basemap_sources WHERE layer = ?", s.layer,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking basemap source: %w", err)
	}
	return count > 0, nil
}

// Replace swaps the layer contents for lines and records the source. It
// returns the number of stored segments.
func (s *Store) Replace(ctx context.Context, sourceURL string, lines []orb.LineString) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM basemap_segments WHERE layer = ?", s.layer); err != nil {
		return 0, fmt.Errorf("clearing segments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO basemap_segments (
			layer, geometry, bbox_min_lat, bbox_max_lat, bbox_min_lon, bbox_max_lon
		) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, line := range lines {
		for _, seg := range split(line, maxSegmentPoints) {
			data, err := wkb.Marshal(seg)
			if err != nil {
				return 0, fmt.Errorf("encoding segment: %w", err)
			}
			b := seg.Bound()
			if _, err := stmt.ExecContext(ctx, s.layer, data,
				b.Min.Lat(), b.Max.Lat(), b.Min.Lon(), b.Max.Lon()); err != nil {
				return 0, fmt.Errorf("inserting segment: %w", err)
			}
			count++
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO basemap_sources (layer, source_url, segments) VALUES (?, ?, ?)
		ON CONFLICT(layer) DO UPDATE SET
			source_url = excluded.source_url,
			segments = excluded.segments,
			provisioned_at = CURRENT_TIMESTAMP
	`, s.layer, sourceURL, count)
	if err != nil {
		return 0, fmt.Errorf("recording source: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing basemap: %w", err)
	}
	return count, nil
}

// LinesInBound returns the stored segments whose bounding box intersects b
func (s *Store) LinesInBound(ctx context.Context, b orb.Bound) ([]orb.LineString, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT geometry FROM basemap_segments
		WHERE layer = ?
		  AND bbox_max_lat >= ? AND bbox_min_lat <= ?
		  AND bbox_max_lon >= ? AND bbox_min_lon <= ?
		LIMIT ?
	`, s.layer, b.Min.Lat(), b.Max.Lat(), b.Min.Lon(), b.Max.Lon(), maxQueryRows)
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	defer rows.Close()

	var lines []orb.LineString
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning segment: %w", err)
		}
		g, err := wkb.Unmarshal(data)
		if err != nil {
			continue
		}
		if ls, ok := g.(orb.LineString); ok {
			lines = append(lines, ls)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading segments: %w", err)
	}
	return lines, nil
}

// split cuts a line into pieces of at most n points. Consecutive pieces share
// an endpoint so the drawn line stays connected.
func split(line orb.LineString, n int) []orb.LineString {
	if len(line) < 2 {
		return nil
	}
	if len(line) <= n {
		return []orb.LineString{line}
	}
	var out []orb.LineString
	for start := 0; start < len(line)-1; start += n - 1 {
		end := min(start+n, len(line))
		out = append(out, line[start:end])
	}
	return out
}
