package resolver

import (
	"testing"
)

func TestValidCoords(t *testing.T) {
	tests := []struct {
		name string
		lat  *float64
		lon  *float64
		want bool
	}{
		{"both nil", nil, nil, false},
		{"lat nil", nil, ptr(-99.3), false},
		{"null island", ptr(0), ptr(0), false},
		{"near null island", ptr(0.00005), ptr(-0.00005), false},
		{"kansas placeholder", ptr(38.5), ptr(-98.0), false},
		{"latitude out of range", ptr(91), ptr(-99.3), false},
		{"longitude out of range", ptr(38.9), ptr(-181), false},
		{"kansas", ptr(38.8791), ptr(-99.3268), true},
		{"zero longitude only", ptr(38.9), ptr(0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidCoords(tt.lat, tt.lon)
			if got != tt.want {
				t.Errorf("ValidCoords() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyCoords(t *testing.T) {
	tests := []struct {
		name            string
		lat             *float64
		lon             *float64
		geomFromAddress bool
		want            Fidelity
	}{
		{"missing", nil, nil, false, Placeholder},
		{"null island with flag", ptr(0), ptr(0), true, Placeholder},
		{"kansas placeholder", ptr(38.5), ptr(-98.0), false, Placeholder},
		{"valid without flag", ptr(38.8791), ptr(-99.3268), false, CityCentroid},
		{"valid with flag", ptr(38.8791), ptr(-99.3268), true, StreetLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCoords(tt.lat, tt.lon, tt.geomFromAddress)
			if got != tt.want {
				t.Errorf("ClassifyCoords() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFidelityString(t *testing.T) {
	tests := []struct {
		f    Fidelity
		want string
	}{
		{Placeholder, "placeholder"},
		{CityCentroid, "city_centroid"},
		{StreetLevel, "street_level"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("Fidelity.String() = %q, want %q", got, tt.want)
		}
	}
}
