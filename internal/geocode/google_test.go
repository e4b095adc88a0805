package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestGoogle(handler http.HandlerFunc) (*Google, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewGoogle("test-key", 5*time.Second)
	client.baseURL = server.URL
	return client, server
}

func TestGoogleGeocode(t *testing.T) {
	var gotAddress, gotKey string
	client, server := newTestGoogle(func(w http.ResponseWriter, r *http.Request) {
		gotAddress = r.URL.Query().Get("address")
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "1005 County Road 5, Hays, KS 67601, USA",
				"geometry": {"location": {"lat": 38.8791, "lng": -99.3268}}
			}]
		}`))
	})
	defer server.Close()

	result, err := client.Geocode(context.Background(), "1005 County Road 5, Hays, KS")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if result == nil {
		t.Fatal("Geocode() returned nil result for a match")
	}
	if result.Lat != 38.8791 || result.Lon != -99.3268 {
		t.Errorf("Geocode() = (%f, %f), want (38.8791, -99.3268)", result.Lat, result.Lon)
	}
	if gotAddress != "1005 County Road 5, Hays, KS" {
		t.Errorf("sent address = %q", gotAddress)
	}
	if gotKey != "test-key" {
		t.Errorf("sent key = %q", gotKey)
	}
}

func TestGoogleGeocodeZeroResults(t *testing.T) {
	client, server := newTestGoogle(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})
	defer server.Close()

	result, err := client.Geocode(context.Background(), "nowhere")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if result != nil {
		t.Errorf("Geocode() = %+v, want nil for ZERO_RESULTS", result)
	}
}

func TestGoogleGeocodeErrorStatus(t *testing.T) {
	client, server := newTestGoogle(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "OVER_QUERY_LIMIT", "results": []}`))
	})
	defer server.Close()

	_, err := client.Geocode(context.Background(), "anything")
	if err == nil {
		t.Fatal("Geocode() error = nil, want error for OVER_QUERY_LIMIT")
	}
}
