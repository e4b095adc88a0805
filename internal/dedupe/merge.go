package dedupe

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/aginfo-gis/facility-tools/internal/audit"
	"github.com/aginfo-gis/facility-tools/internal/normalize"
)

// recordScore weights a facility's field completeness. The highest-scoring
// member anchors the merged proposal.
func recordScore(r Record) int {
	s := 0
	weighted := []struct {
		present bool
		w       int
	}{
		{r.Description != "", 5},
		{r.Notes != "", 4},
		{r.Website != "", 2},
		{r.Phone != "", 2},
		{r.Email != "", 2},
		{r.AddressLine1 != "", 3},
		{r.City != "", 2},
		{r.State != "", 2},
		{r.PostalCode != "", 2},
		{r.Lat != nil, 2},
		{r.Lon != nil, 2},
	}
	for _, f := range weighted {
		if f.present {
			s += f.w
		}
	}
	if r.Status == "ACTIVE" {
		s += 2
	}
	if r.GeomFromAddress {
		s += 1
	}
	return s
}

// ProposeFacilityMerge synthesizes the canonical facility for a group:
// name is the longest, the address comes from the most complete member,
// contact fields take the first non-empty value, free text is combined
// without loss, coordinates prefer members geocoded from their address.
// The result always comes back ACTIVE.
func ProposeFacilityMerge(group []Record) (Record, error) {
	base := group[0]
	for _, r := range group[1:] {
		if recordScore(r) > recordScore(base) {
			base = r
		}
	}

	merged := Record{
		CompanyID:      base.CompanyID,
		FacilityTypeID: base.FacilityTypeID,
		Status:         "ACTIVE",
	}

	merged.Name = base.Name
	for _, r := range group {
		if len(normalize.Whitespace(r.Name)) > len(normalize.Whitespace(merged.Name)) {
			merged.Name = r.Name
		}
	}

	merged.AddressLine1 = firstNonEmpty(base.AddressLine1, group, func(r Record) string { return r.AddressLine1 })
	merged.AddressLine2 = firstNonEmpty(base.AddressLine2, group, func(r Record) string { return r.AddressLine2 })
	merged.City = firstNonEmpty(base.City, group, func(r Record) string { return r.City })
	merged.County = firstNonEmpty(base.County, group, func(r Record) string { return r.County })
	merged.State = firstNonEmpty(base.State, group, func(r Record) string { return r.State })
	merged.PostalCode = firstNonEmpty(base.PostalCode, group, func(r Record) string { return r.PostalCode })
	if merged.AddressLine1 != "" {
		merged.AddressLine1 = normalize.TitleStreet(normalize.CleanStreet(merged.AddressLine1), merged.State)
	}

	merged.Website = firstNonEmpty(base.Website, group, func(r Record) string { return r.Website })
	merged.Phone = firstNonEmpty(base.Phone, group, func(r Record) string { return r.Phone })
	merged.Email = firstNonEmpty(base.Email, group, func(r Record) string { return r.Email })

	merged.Description = combineAll(group, func(r Record) string { return r.Description })
	merged.Notes = combineAll(group, func(r Record) string { return r.Notes })
	merged.ImportedSource = combineAll(group, func(r Record) string { return r.ImportedSource })

	for _, r := range group {
		if r.GeomFromAddress {
			merged.GeomFromAddress = true
			break
		}
	}

	merged.Lat, merged.Lon = pickCoords(base, group)

	if normalize.Whitespace(merged.Name) == "" {
		return merged, fmt.Errorf("cannot merge facilities %v: no usable name", memberIDs(group))
	}
	if merged.Lat == nil || merged.Lon == nil {
		return merged, fmt.Errorf("cannot merge facilities %v: no member has coordinates", memberIDs(group))
	}
	return merged, nil
}

// pickCoords takes the base record's coordinates when present, otherwise
// the first member geocoded from its address, otherwise any member with a
// value.
func pickCoords(base Record, group []Record) (*float64, *float64) {
	if base.Lat != nil && base.Lon != nil {
		return base.Lat, base.Lon
	}
	for _, r := range group {
		if r.GeomFromAddress && r.Lat != nil && r.Lon != nil {
			return r.Lat, r.Lon
		}
	}
	for _, r := range group {
		if r.Lat != nil && r.Lon != nil {
			return r.Lat, r.Lon
		}
	}
	return nil, nil
}

func firstNonEmpty(preferred string, group []Record, get func(Record) string) string {
	if v := normalize.Whitespace(preferred); v != "" {
		return v
	}
	for _, r := range group {
		if v := normalize.Whitespace(get(r)); v != "" {
			return v
		}
	}
	return ""
}

// combineAll folds a free-text field across the group, longest chunks
// first so contained fragments collapse into their superset.
func combineAll(group []Record, get func(Record) string) string {
	members := make([]Record, len(group))
	copy(members, group)
	sort.SliceStable(members, func(i, j int) bool {
		return len(normalize.Whitespace(get(members[i]))) > len(normalize.Whitespace(get(members[j])))
	})

	acc := ""
	for _, r := range members {
		acc = normalize.CombineText(acc, get(r))
	}
	return acc
}

func memberIDs(group []Record) []int64 {
	ids := make([]int64, 0, len(group))
	for _, r := range group {
		ids = append(ids, r.ID)
	}
	return ids
}

// facilityReport builds the review diff for one group.
func facilityReport(idx, total int, group []Record, proposed Record) audit.GroupReport {
	report := audit.GroupReport{Kind: "facility", Index: idx, Total: total, MemberIDs: memberIDs(group)}

	fields := []struct {
		name   string
		get    func(Record) string
		merged string
	}{
		{"name", func(r Record) string { return r.Name }, proposed.Name},
		{"address_line1", func(r Record) string { return r.AddressLine1 }, proposed.AddressLine1},
		{"address_line2", func(r Record) string { return r.AddressLine2 }, proposed.AddressLine2},
		{"city", func(r Record) string { return r.City }, proposed.City},
		{"county", func(r Record) string { return r.County }, proposed.County},
		{"state", func(r Record) string { return r.State }, proposed.State},
		{"postal_code", func(r Record) string { return r.PostalCode }, proposed.PostalCode},
		{"website_url", func(r Record) string { return r.Website }, proposed.Website},
		{"phone_main", func(r Record) string { return r.Phone }, proposed.Phone},
		{"email_main", func(r Record) string { return r.Email }, proposed.Email},
		{"description", func(r Record) string { return r.Description }, proposed.Description},
		{"notes", func(r Record) string { return r.Notes }, proposed.Notes},
		{"imported_source", func(r Record) string { return r.ImportedSource }, proposed.ImportedSource},
		{"latitude", func(r Record) string { return fmtCoord(r.Lat) }, fmtCoord(proposed.Lat)},
		{"longitude", func(r Record) string { return fmtCoord(r.Lon) }, fmtCoord(proposed.Lon)},
		{"status", func(r Record) string { return r.Status }, proposed.Status},
	}
	for _, f := range fields {
		first := f.get(group[0])
		same := true
		for _, r := range group[1:] {
			if f.get(r) != first {
				same = false
				break
			}
		}
		if same {
			report.Matches = append(report.Matches, f.name)
			continue
		}
		diff := audit.FieldDiff{Field: f.name, Merged: f.merged}
		for _, r := range group {
			diff.Values = append(diff.Values, audit.MemberValue{ID: r.ID, Value: f.get(r)})
		}
		report.Diffs = append(report.Diffs, diff)
	}
	return report
}

func fmtCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}
