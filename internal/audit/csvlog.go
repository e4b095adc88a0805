// Package audit emits the per-run decision trail: one CSV row per facility
// the resolver touches and one printed report per merge group the deduper
// reviews. Nothing here is persisted to the relational store.
package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CSVLog writes the resolver audit log: exactly one row per facility
// processed, whatever the outcome.
type CSVLog struct {
	w      *csv.Writer
	closer io.Closer
}

// ResolverEntry is one audit row.
type ResolverEntry struct {
	FacilityID  int64
	Name        string
	Mode        string
	Query       string
	Backend     string
	OldLat      *float64
	OldLon      *float64
	NewLat      *float64
	NewLon      *float64
	OldGeomFlag bool
	NewGeomFlag bool
	DisplayName string
	Status      string
}

// NewCSVLog creates the audit log file and writes the header.
func NewCSVLog(path string) (*CSVLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log %s: %w", path, err)
	}

	l := &CSVLog{w: csv.NewWriter(f), closer: f}
	header := []string{
		"facility_id", "name",
		"mode_used", "query_used", "geocoder_backend",
		"old_lat", "old_lon", "new_lat", "new_lon",
		"old_geom_from_address", "new_geom_from_address",
		"display_name", "status",
	}
	if err := l.w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write audit header: %w", err)
	}
	return l, nil
}

// NewCSVLogWriter creates a log writing to an arbitrary writer (tests).
func NewCSVLogWriter(w io.Writer) (*CSVLog, error) {
	l := &CSVLog{w: csv.NewWriter(w)}
	header := []string{
		"facility_id", "name",
		"mode_used", "query_used", "geocoder_backend",
		"old_lat", "old_lon", "new_lat", "new_lon",
		"old_geom_from_address", "new_geom_from_address",
		"display_name", "status",
	}
	if err := l.w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write audit header: %w", err)
	}
	return l, nil
}

// Write appends one entry to the log.
func (l *CSVLog) Write(e ResolverEntry) error {
	record := []string{
		strconv.FormatInt(e.FacilityID, 10),
		e.Name,
		e.Mode,
		e.Query,
		e.Backend,
		formatCoord(e.OldLat),
		formatCoord(e.OldLon),
		formatCoord(e.NewLat),
		formatCoord(e.NewLon),
		strconv.FormatBool(e.OldGeomFlag),
		strconv.FormatBool(e.NewGeomFlag),
		e.DisplayName,
		e.Status,
	}
	return l.w.Write(record)
}

// Close flushes and closes the log.
func (l *CSVLog) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return err
	}
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
