// Package resolver repairs facility coordinates by re-geocoding addresses.
// It processes rows strictly one at a time, writes back latitude/longitude
// only (the database trigger regenerates the geometry column) and records
// one audit line per row.
package resolver

import "database/sql"

// Facility is the slice of a facility row the resolver works with.
type Facility struct {
	ID              int64
	Name            string
	AddressLine1    string
	AddressLine2    string
	City            string
	State           string
	PostalCode      string
	Lat             *float64
	Lon             *float64
	GeomFromAddress bool
}

// The import tooling seeds ungeocoded rows with the center of Kansas
// instead of NULL. Defined once here; everything else goes through
// ValidCoords/ClassifyCoords.
const (
	placeholderLat = 38.5
	placeholderLon = -98.0
)

// Fidelity classifies how much a stored coordinate can be trusted. It
// replaces magic-value comparisons against the schema's placeholder
// coordinates.
type Fidelity int

const (
	// Placeholder: missing, (0,0), out-of-range or import-default
	// coordinates.
	Placeholder Fidelity = iota
	// CityCentroid: geocoded from a city/state query, center-of-town only.
	CityCentroid
	// StreetLevel: geocoded from a full street address.
	StreetLevel
)

func (f Fidelity) String() string {
	switch f {
	case CityCentroid:
		return "city_centroid"
	case StreetLevel:
		return "street_level"
	default:
		return "placeholder"
	}
}

// ClassifyCoords reports the fidelity of a stored coordinate pair given the
// geom_from_address flag. Coordinates near (0,0) are treated as unset.
func ClassifyCoords(lat, lon *float64, geomFromAddress bool) Fidelity {
	if !ValidCoords(lat, lon) {
		return Placeholder
	}
	if geomFromAddress {
		return StreetLevel
	}
	return CityCentroid
}

// ValidCoords reports whether a coordinate pair is present, inside valid
// lat/lon ranges and away from both null island and the import
// placeholder.
func ValidCoords(lat, lon *float64) bool {
	if lat == nil || lon == nil {
		return false
	}
	if *lat < -90 || *lat > 90 || *lon < -180 || *lon > 180 {
		return false
	}
	if abs(*lat) < 0.0001 && abs(*lon) < 0.0001 {
		return false
	}
	if abs(*lat-placeholderLat) < 0.0001 && abs(*lon-placeholderLon) < 0.0001 {
		return false
	}
	return true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func scanFacility(rows *sql.Rows) (Facility, error) {
	var f Facility
	var line1, line2, city, state, postal sql.NullString
	var lat, lon sql.NullFloat64
	var gfa sql.NullBool

	err := rows.Scan(&f.ID, &f.Name, &line1, &line2, &city, &state, &postal, &lat, &lon, &gfa)
	if err != nil {
		return f, err
	}

	f.AddressLine1 = line1.String
	f.AddressLine2 = line2.String
	f.City = city.String
	f.State = state.String
	f.PostalCode = postal.String
	if lat.Valid {
		v := lat.Float64
		f.Lat = &v
	}
	if lon.Valid {
		v := lon.Float64
		f.Lon = &v
	}
	f.GeomFromAddress = gfa.Valid && gfa.Bool
	return f, nil
}
