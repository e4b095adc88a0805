package geo

import (
	"math"
	"testing"
)

func TestHaversineMeters(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lon1      float64
		lat2      float64
		lon2      float64
		want      float64
		tolerance float64
	}{
		{
			name: "same point",
			lat1: 38.8791, lon1: -99.3268,
			lat2: 38.8791, lon2: -99.3268,
			want: 0, tolerance: 0.001,
		},
		{
			name: "one degree of latitude",
			lat1: 38.0, lon1: -99.0,
			lat2: 39.0, lon2: -99.0,
			want: 111195, tolerance: 200,
		},
		{
			name: "hays to wichita",
			lat1: 38.8791, lon1: -99.3268,
			lat2: 37.6872, lon2: -97.3301,
			want: 219000, tolerance: 2000,
		},
		{
			name: "about 800 meters apart",
			lat1: 38.8791, lon1: -99.3268,
			lat2: 38.8863, lon2: -99.3268,
			want: 800, tolerance: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineMeters(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineMeters() = %.1f, want %.1f ± %.1f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestHaversineMetersSymmetric(t *testing.T) {
	d1 := HaversineMeters(38.8791, -99.3268, 37.6872, -97.3301)
	d2 := HaversineMeters(37.6872, -97.3301, 38.8791, -99.3268)
	if math.Abs(d1-d2) > 0.0001 {
		t.Errorf("distance not symmetric: %f vs %f", d1, d2)
	}
}
