// Package geo provides the geodesic distance used when splitting facility
// groups whose members share an address key but sit far apart on the ground.
package geo

import "math"

// Mean Earth radius in meters (IUGG).
const earthRadiusM = 6371008.8

// HaversineMeters returns the great-circle distance in meters between two
// WGS84 lat/lon points. Accurate to well under 0.5% at the scales the merge
// tooling cares about (hundreds of meters).
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180

	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lon2 - lon1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}
