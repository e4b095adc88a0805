package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultGoogleURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Google wraps the paid Google Geocoding API, selected with --use-google.
type Google struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewGoogle creates a Google geocoding client. The API key comes from the
// GOOGLE_API_KEY environment variable; the caller validates it is present.
func NewGoogle(apiKey string, timeout time.Duration) *Google {
	return &Google{
		baseURL:    defaultGoogleURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (g *Google) Name() string { return "google" }

type googleResponse struct {
	Results []googleResult `json:"results"`
	Status  string         `json:"status"`
}

type googleResult struct {
	FormattedAddress string         `json:"formatted_address"`
	Geometry         googleGeometry `json:"geometry"`
}

type googleGeometry struct {
	Location googleLatLng `json:"location"`
}

type googleLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocode returns the top Google match for the query, or nil when the API
// reports no results.
func (g *Google) Geocode(ctx context.Context, query string) (*Result, error) {
	params := url.Values{}
	params.Set("address", query)
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding API returned HTTP %d", resp.StatusCode)
	}

	var geoResp googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&geoResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	switch geoResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, fmt.Errorf("geocoding failed: status=%s", geoResp.Status)
	}
	if len(geoResp.Results) == 0 {
		return nil, nil
	}

	top := geoResp.Results[0]
	return &Result{
		Lat:         top.Geometry.Location.Lat,
		Lon:         top.Geometry.Location.Lng,
		DisplayName: top.FormattedAddress,
	}, nil
}
