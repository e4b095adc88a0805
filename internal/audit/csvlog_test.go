package audit

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
)

func TestCSVLogWrite(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewCSVLogWriter(&buf)
	if err != nil {
		t.Fatalf("NewCSVLogWriter() error = %v", err)
	}

	oldLat, oldLon := 0.0, 0.0
	newLat, newLon := 38.8791, -99.3268
	entry := ResolverEntry{
		FacilityID:  42,
		Name:        "Hays Grain Elevator",
		Mode:        "address",
		Query:       "1005 County Road 5, Hays, KS, 67601",
		Backend:     "nominatim",
		OldLat:      &oldLat,
		OldLon:      &oldLon,
		NewLat:      &newLat,
		NewLon:      &newLon,
		OldGeomFlag: false,
		NewGeomFlag: true,
		DisplayName: "1005 County Road 5, Hays, Ellis County, Kansas",
		Status:      "UPDATED",
	}
	if err := log.Write(entry); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want header + 1 row", len(records))
	}

	header := records[0]
	wantHeader := []string{
		"facility_id", "name",
		"mode_used", "query_used", "geocoder_backend",
		"old_lat", "old_lon", "new_lat", "new_lon",
		"old_geom_from_address", "new_geom_from_address",
		"display_name", "status",
	}
	if strings.Join(header, ",") != strings.Join(wantHeader, ",") {
		t.Errorf("header = %v, want %v", header, wantHeader)
	}

	row := records[1]
	if row[0] != "42" || row[2] != "address" || row[4] != "nominatim" {
		t.Errorf("row = %v", row)
	}
	if row[7] != "38.8791" || row[8] != "-99.3268" {
		t.Errorf("new coords in row = %q, %q", row[7], row[8])
	}
	if row[9] != "false" || row[10] != "true" {
		t.Errorf("geom flags in row = %q, %q", row[9], row[10])
	}
	if row[12] != "UPDATED" {
		t.Errorf("status = %q", row[12])
	}
}

func TestCSVLogNilCoords(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewCSVLogWriter(&buf)
	if err != nil {
		t.Fatalf("NewCSVLogWriter() error = %v", err)
	}
	if err := log.Write(ResolverEntry{FacilityID: 7, Name: "Mystery Site", Status: "NO_QUERY"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back CSV: %v", err)
	}
	row := records[1]
	for _, i := range []int{5, 6, 7, 8} {
		if row[i] != "" {
			t.Errorf("coord column %d = %q, want empty for nil", i, row[i])
		}
	}
}
