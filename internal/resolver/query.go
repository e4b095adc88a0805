package resolver

import (
	"strings"

	"github.com/aginfo-gis/facility-tools/internal/normalize"
)

// Query mode names, recorded in the audit log so downstream consumers can
// tell street-level fixes from center-of-town fallbacks.
const (
	ModeAddress   = "address"
	ModeCityState = "city_state"
)

// Query is one geocoding attempt: the text sent to the provider and the
// fidelity mode it would produce.
type Query struct {
	Text string
	Mode string
}

// BuildQueries returns the geocoding attempts for a facility in preference
// order: full street address first, then the city/state (+ zip) centroid
// fallback. An empty slice means the row has nothing usable to geocode.
func BuildQueries(f Facility) []Query {
	street1 := normalize.CleanStreet(f.AddressLine1)
	street2 := normalize.CleanStreet(f.AddressLine2)
	city := normalize.Whitespace(f.City)
	state := strings.ToUpper(strings.TrimSpace(f.State))
	postal := normalize.Whitespace(f.PostalCode)

	join := func(parts ...string) string {
		var kept []string
		for _, p := range parts {
			if p != "" {
				kept = append(kept, p)
			}
		}
		return strings.Join(kept, ", ")
	}

	var queries []Query
	if street1 != "" && !normalize.LooksLikeNoStreet(street1) {
		queries = append(queries, Query{Text: join(street1, street2, city, state, postal), Mode: ModeAddress})
		if city != "" && state != "" {
			queries = append(queries, Query{Text: join(city, state, postal), Mode: ModeCityState})
		}
	} else if city != "" && state != "" {
		queries = append(queries, Query{Text: join(city, state, postal), Mode: ModeCityState})
	}

	return queries
}
