package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Careers a bootcamp can prepare students for
var Careers = []string{
	"Web Development",
	"Mobile Development",
	"UI/UX",
	"Data Science",
	"Business",
	"Other",
}

// Bootcamp is a listing published by a user with the publisher or admin role
type Bootcamp struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time                   `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
	UserID        uint                        `gorm:"not null;index" json:"user"`
	Name          string                      `gorm:"uniqueIndex;not null;size:50" json:"name"`
	Slug          string                      `gorm:"index" json:"slug"`
	Description   string                      `gorm:"type:text;not null" json:"description"`
	Website       string                      `json:"website,omitempty"`
	Phone         string                      `gorm:"size:20" json:"phone,omitempty"`
	Email         string                      `json:"email,omitempty"`
	Address       string                      `gorm:"not null" json:"-"` // Input only; clients see Location
	Location      GeoPoint                    `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Careers       datatypes.JSONSlice[string] `gorm:"not null" json:"careers"`
	Housing       bool                        `json:"housing"`
	JobAssistance bool                        `json:"jobAssistance"`
	JobGuarantee  bool                        `json:"jobGuarantee"`
	AcceptGi      bool                        `json:"acceptGi"`
	AverageCost   *float64                    `json:"averageCost"` // Derived from courses, never client-set
	Photo         *string                     `json:"photo"`

	// Relationships
	Courses []Course `gorm:"foreignKey:BootcampID;constraint:OnDelete:CASCADE" json:"courses,omitempty"`
}

// OwnedBy reports whether u may modify the bootcamp
func (b *Bootcamp) OwnedBy(u *User) bool {
	return u != nil && (u.IsAdmin() || b.UserID == u.ID)
}

// GeoPoint is a geocoded location. Latitude and Longitude are nil when the
// address could not be geocoded.
type GeoPoint struct {
	Latitude         *float64 `gorm:"index"`
	Longitude        *float64
	FormattedAddress string
	Street           string
	City             string
	State            string
	Zipcode          string
	Country          string
}

// Valid reports whether the point carries coordinates
func (p GeoPoint) Valid() bool {
	return p.Latitude != nil && p.Longitude != nil
}

type geoJSON struct {
	Type             string    `json:"type"`
	Coordinates      []float64 `json:"coordinates"` // [longitude, latitude]
	FormattedAddress string    `json:"formattedAddress,omitempty"`
	Street           string    `json:"street,omitempty"`
	City             string    `json:"city,omitempty"`
	State            string    `json:"state,omitempty"`
	Zipcode          string    `json:"zipcode,omitempty"`
	Country          string    `json:"country,omitempty"`
}

// MarshalJSON renders the point as a GeoJSON Point, or null when unset.
func (p GeoPoint) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(geoJSON{
		Type:             "Point",
		Coordinates:      []float64{*p.Longitude, *p.Latitude},
		FormattedAddress: p.FormattedAddress,
		Street:           p.Street,
		City:             p.City,
		State:            p.State,
		Zipcode:          p.Zipcode,
		Country:          p.Country,
	})
}

// UnmarshalJSON accepts the GeoJSON shape produced by MarshalJSON.
func (p *GeoPoint) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = GeoPoint{}
		return nil
	}
	var g geoJSON
	if err := json.Unmarshal(data, &g); err != nil {
		return err
	}
	*p = GeoPoint{
		FormattedAddress: g.FormattedAddress,
		Street:           g.Street,
		City:             g.City,
		State:            g.State,
		Zipcode:          g.Zipcode,
		Country:          g.Country,
	}
	if len(g.Coordinates) == 2 {
		lng, lat := g.Coordinates[0], g.Coordinates[1]
		p.Longitude = &lng
		p.Latitude = &lat
	}
	return nil
}
