// Package geocoder resolves free-form addresses and zipcodes to coordinates.
package geocoder

import (
	"context"
	"errors"
	"strings"
)

// ErrNoMatch is returned when the provider found nothing for the address
var ErrNoMatch = errors.New("geocoder: no match for address")

// Result is a single geocoded location
type Result struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Street    string  `json:"street,omitempty"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	Zipcode   string  `json:"zipcode,omitempty"`
	Country   string  `json:"country,omitempty"`
}

// FormattedAddress joins the non-empty address parts
func (r *Result) FormattedAddress() string {
	parts := make([]string, 0, 4)
	if r.Street != "" {
		parts = append(parts, r.Street)
	}
	if r.City != "" {
		parts = append(parts, r.City)
	}
	if region := strings.TrimSpace(r.State + " " + r.Zipcode); region != "" {
		parts = append(parts, region)
	}
	if r.Country != "" {
		parts = append(parts, r.Country)
	}
	return strings.Join(parts, ", ")
}

// Geocoder looks up an address
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}
