package dedupe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aginfo-gis/facility-tools/internal/geo"
	"github.com/aginfo-gis/facility-tools/internal/normalize"
)

// Record is the slice of a facility row the merger works with. Optional
// columns are pointers so "absent" and "zero" stay distinct.
type Record struct {
	ID              int64
	CompanyID       int64
	FacilityTypeID  *int64
	Name            string
	Description     string
	AddressLine1    string
	AddressLine2    string
	City            string
	County          string
	State           string
	PostalCode      string
	Lat             *float64
	Lon             *float64
	Status          string
	Website         string
	Phone           string
	Email           string
	Notes           string
	ImportedSource  string
	GeomFromAddress bool
}

// BuildFacilityGroups buckets facilities by owning company plus normalized
// address, then splits each bucket into spatial clusters. A member joins
// the current cluster only when it is within maxMeters of every member
// already in it, so no cluster holds a pair farther apart than the
// threshold. Members without coordinates stay with the current cluster.
// Only clusters of two or more survive.
func BuildFacilityGroups(records []Record, maxMeters float64) [][]Record {
	byKey := make(map[string][]Record)
	for _, r := range records {
		if r.CompanyID == 0 {
			continue
		}
		key := normalize.FacilityKey(r.CompanyID, r.AddressLine1, r.City, r.State, r.PostalCode)
		if !normalize.FacilityKeyHasAddress(key) {
			continue
		}
		byKey[key] = append(byKey[key], r)
	}

	var groups [][]Record
	for _, members := range byKey {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

		var cluster []Record
		for _, r := range members {
			if len(cluster) > 0 && tooFarFromAny(cluster, r, maxMeters) {
				if len(cluster) >= 2 {
					groups = append(groups, cluster)
				}
				cluster = nil
			}
			cluster = append(cluster, r)
		}
		if len(cluster) >= 2 {
			groups = append(groups, cluster)
		}
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i][0].ID < groups[j][0].ID })
	return groups
}

// tooFar reports whether two records are demonstrably more than maxMeters
// apart. Distance is only computable when both sides carry coordinates.
func tooFar(a, b Record, maxMeters float64) bool {
	if a.Lat == nil || a.Lon == nil || b.Lat == nil || b.Lon == nil {
		return false
	}
	return geo.HaversineMeters(*a.Lat, *a.Lon, *b.Lat, *b.Lon) > maxMeters
}

// tooFarFromAny checks a candidate against every current cluster member,
// not just the first one admitted.
func tooFarFromAny(cluster []Record, r Record, maxMeters float64) bool {
	for _, m := range cluster {
		if tooFar(m, r, maxMeters) {
			return true
		}
	}
	return false
}

// BuildUniqueKeyGroups buckets facilities by (company_id, name, city,
// state), the facility table's unique key. It catches exact duplicates
// whose address text was too sparse for the address grouper.
func BuildUniqueKeyGroups(records []Record) [][]Record {
	byKey := make(map[string][]Record)
	for _, r := range records {
		name := strings.ToLower(normalize.Whitespace(r.Name))
		city := strings.ToLower(normalize.Whitespace(r.City))
		state := strings.ToUpper(normalize.Whitespace(r.State))
		if r.CompanyID == 0 || name == "" || city == "" || state == "" {
			continue
		}
		key := fmt.Sprintf("%d|%s|%s|%s", r.CompanyID, name, city, state)
		byKey[key] = append(byKey[key], r)
	}

	var groups [][]Record
	for _, members := range byKey {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
		groups = append(groups, members)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0].ID < groups[j][0].ID })
	return groups
}

// MergeGroupLists combines address-based and unique-key groups, address
// groups first. A facility lands in at most one group per run; later groups
// containing an already-claimed facility are dropped whole.
func MergeGroupLists(primary, secondary [][]Record) [][]Record {
	claimed := make(map[int64]bool)
	var out [][]Record

	take := func(groups [][]Record) {
		for _, g := range groups {
			overlap := false
			for _, r := range g {
				if claimed[r.ID] {
					overlap = true
					break
				}
			}
			if overlap {
				continue
			}
			for _, r := range g {
				claimed[r.ID] = true
			}
			out = append(out, g)
		}
	}
	take(primary)
	take(secondary)
	return out
}
