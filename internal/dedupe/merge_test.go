package dedupe

import (
	"strings"
	"testing"
)

func TestProposeFacilityMerge(t *testing.T) {
	group := []Record{
		{
			ID: 10, CompanyID: 7, Name: "Acme Elevator",
			AddressLine1: "1005 CR 5", City: "Hays", State: "KS", PostalCode: "67601",
			Status: "ACTIVE", Notes: "built 1954",
			Lat: ptr(38.8791), Lon: ptr(-99.3268),
		},
		{
			ID: 11, CompanyID: 7, Name: "Acme Grain Elevator North",
			AddressLine1: "1005 County Road 5", City: "Hays", State: "KS", PostalCode: "67601",
			Status: "ACTIVE", Description: "Concrete elevator with rail siding",
			Website: "https://acmegrain.example.com", Phone: "785-555-0101",
			Notes: "capacity 120k bushels",
			Lat:   ptr(38.8792), Lon: ptr(-99.3269),
			GeomFromAddress: true,
		},
	}

	merged, err := ProposeFacilityMerge(group)
	if err != nil {
		t.Fatalf("ProposeFacilityMerge() error = %v", err)
	}

	if merged.Name != "Acme Grain Elevator North" {
		t.Errorf("merged name = %q, want the longest name", merged.Name)
	}
	if merged.Status != "ACTIVE" {
		t.Errorf("merged status = %q, want ACTIVE", merged.Status)
	}
	if !merged.GeomFromAddress {
		t.Error("merged geom_from_address = false, want OR of members")
	}
	if merged.Website != "https://acmegrain.example.com" {
		t.Errorf("merged website = %q", merged.Website)
	}
	if merged.Phone != "785-555-0101" {
		t.Errorf("merged phone = %q", merged.Phone)
	}
	// Both notes survive.
	if !strings.Contains(merged.Notes, "built 1954") || !strings.Contains(merged.Notes, "capacity 120k bushels") {
		t.Errorf("merged notes = %q, lost member text", merged.Notes)
	}
	// Base is the more complete member 11; its coordinates win.
	if merged.Lat == nil || *merged.Lat != 38.8792 {
		t.Errorf("merged latitude = %v, want base record's 38.8792", merged.Lat)
	}
	if merged.AddressLine1 != "1005 County Road 5" {
		t.Errorf("merged address = %q, want expanded county road", merged.AddressLine1)
	}
}

func TestProposeFacilityMergePrefersGeocodedCoords(t *testing.T) {
	group := []Record{
		{
			ID: 1, CompanyID: 7, Name: "Site A very complete record",
			AddressLine1: "1005 CR 5", City: "Hays", State: "KS", PostalCode: "67601",
			Description: "long description here", Notes: "plenty of notes",
			Website: "https://a.example.com", Phone: "785-555-0000", Email: "a@example.com",
			Status: "ACTIVE",
		},
		{
			ID: 2, CompanyID: 7, Name: "Site A",
			AddressLine1: "1005 CR 5", City: "Hays", State: "KS",
			Lat: ptr(38.88), Lon: ptr(-99.33), GeomFromAddress: true,
		},
		{
			ID: 3, CompanyID: 7, Name: "Site A",
			AddressLine1: "1005 CR 5", City: "Hays", State: "KS",
			Lat: ptr(38.00), Lon: ptr(-99.00),
		},
	}

	merged, err := ProposeFacilityMerge(group)
	if err != nil {
		t.Fatalf("ProposeFacilityMerge() error = %v", err)
	}
	// Base (member 1) has no coordinates; the geocoded member beats the
	// plain one.
	if merged.Lat == nil || *merged.Lat != 38.88 {
		t.Errorf("merged latitude = %v, want geocoded member's 38.88", merged.Lat)
	}
}

func TestProposeFacilityMergeNoCoordinates(t *testing.T) {
	group := []Record{
		{ID: 1, CompanyID: 7, Name: "Site A", City: "Hays", State: "KS"},
		{ID: 2, CompanyID: 7, Name: "Site A", City: "Hays", State: "KS"},
	}
	if _, err := ProposeFacilityMerge(group); err == nil {
		t.Fatal("ProposeFacilityMerge() error = nil, want error when no member has coordinates")
	}
}

func TestRecordScore(t *testing.T) {
	sparse := Record{Name: "X"}
	rich := Record{
		Name: "X", Description: "d", Notes: "n",
		Website: "w", Phone: "p", Email: "e",
		AddressLine1: "a", City: "c", State: "s", PostalCode: "z",
		Lat: ptr(1), Lon: ptr(1),
		Status: "ACTIVE", GeomFromAddress: true,
	}
	if recordScore(rich) <= recordScore(sparse) {
		t.Errorf("recordScore(rich) = %d, not above recordScore(sparse) = %d",
			recordScore(rich), recordScore(sparse))
	}
}

func TestFacilityReport(t *testing.T) {
	group := []Record{
		{ID: 1, Name: "Site A", City: "Hays", State: "KS"},
		{ID: 2, Name: "Site A North", City: "Hays", State: "KS"},
	}
	proposed := Record{Name: "Site A North", City: "Hays", State: "KS", Status: "ACTIVE"}

	report := facilityReport(1, 1, group, proposed)
	if len(report.MemberIDs) != 2 {
		t.Fatalf("report members = %v", report.MemberIDs)
	}

	hasMatch := func(field string) bool {
		for _, m := range report.Matches {
			if m == field {
				return true
			}
		}
		return false
	}
	if !hasMatch("city") || !hasMatch("state") {
		t.Errorf("report matches = %v, want city and state", report.Matches)
	}

	foundName := false
	for _, d := range report.Diffs {
		if d.Field == "name" {
			foundName = true
			if d.Merged != "Site A North" {
				t.Errorf("name diff merged = %q", d.Merged)
			}
			if len(d.Values) != 2 {
				t.Errorf("name diff values = %v", d.Values)
			}
		}
	}
	if !foundName {
		t.Errorf("report diffs = %+v, want a name diff", report.Diffs)
	}
}
