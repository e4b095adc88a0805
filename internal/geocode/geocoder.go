// Package geocode wraps the external geocoding providers behind a single
// one-method contract so the resolver can swap providers by flag and tests
// can substitute a deterministic stub.
package geocode

import "context"

// Result is the best-match candidate returned by a provider.
type Result struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

// Geocoder resolves a free-text query to at most one candidate coordinate.
// A nil Result with nil error means the provider found no match; an error
// means transport or parse failure and the caller decides whether to keep
// going.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*Result, error)
	Name() string
}
