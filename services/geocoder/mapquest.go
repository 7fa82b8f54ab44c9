package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the MapQuest geocoding endpoint
	DefaultBaseURL = "https://www.mapquestapi.com/geocoding/v1/address"
	// DefaultTimeout bounds a single lookup
	DefaultTimeout = 10 * time.Second
)

// MapQuestConfig holds configuration for the MapQuest client
type MapQuestConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// MapQuest geocodes addresses through the MapQuest API
type MapQuest struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewMapQuest creates a new MapQuest client
func NewMapQuest(config MapQuestConfig) *MapQuest {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	return &MapQuest{
		apiKey:     config.APIKey,
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

type mapQuestResponse struct {
	Info struct {
		StatusCode int      `json:"statuscode"`
		Messages   []string `json:"messages"`
	} `json:"info"`
	Results []struct {
		Locations []struct {
			Street     string `json:"street"`
			AdminArea5 string `json:"adminArea5"` // city
			AdminArea3 string `json:"adminArea3"` // state
			AdminArea1 string `json:"adminArea1"` // country
			PostalCode string `json:"postalCode"`
			LatLng     struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"latLng"`
		} `json:"locations"`
	} `json:"results"`
}

// Geocode returns the best match for address
func (m *MapQuest) Geocode(ctx context.Context, address string) (*Result, error) {
	query := url.Values{}
	query.Set("key", m.apiKey)
	query.Set("location", address)
	query.Set("maxResults", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read geocoding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding provider returned status %d", resp.StatusCode)
	}

	var parsed mapQuestResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}

	if parsed.Info.StatusCode != 0 {
		return nil, fmt.Errorf("geocoding provider error %d: %v", parsed.Info.StatusCode, parsed.Info.Messages)
	}

	if len(parsed.Results) == 0 || len(parsed.Results[0].Locations) == 0 {
		return nil, ErrNoMatch
	}

	loc := parsed.Results[0].Locations[0]
	return &Result{
		Latitude:  loc.LatLng.Lat,
		Longitude: loc.LatLng.Lng,
		Street:    loc.Street,
		City:      loc.AdminArea5,
		State:     loc.AdminArea3,
		Zipcode:   loc.PostalCode,
		Country:   loc.AdminArea1,
	}, nil
}
